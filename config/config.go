// Package config loads textreel settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tmpim/textreel"
	"gopkg.in/yaml.v3"
)

// Possible sink names.
const (
	SinkANSI   = "ansi"
	SinkScreen = "screen"
	SinkPNG    = "png"
	SinkHTML   = "html"
	SinkNone   = "none"
)

// Config is the complete textreel configuration.
type Config struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Color       string  `yaml:"color"`      // 256, truecolor
	Brightness  string  `yaml:"brightness"` // luma, average
	Resample    string  `yaml:"resample"`   // box, nearest
	Speed       float64 `yaml:"speed"`
	FPSFallback float64 `yaml:"fps_fallback"`
	Workers     int     `yaml:"workers"`
	Sink        string  `yaml:"sink"`   // ansi, screen, png, html, none
	Output      string  `yaml:"output"` // file or directory for png and html
	// HTMLMinLightness is the lightness floor of html glyph colors, 0 to 1.
	HTMLMinLightness float64 `yaml:"html_min_lightness"`

	Live   LiveConfig   `yaml:"live"`
	Viewer ViewerConfig `yaml:"viewer"`
	Server ServerConfig `yaml:"server"`
}

// LiveConfig contains screen capture settings.
type LiveConfig struct {
	TickBudget    time.Duration `yaml:"tick_budget"`
	Retries       int           `yaml:"retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
	Display       string        `yaml:"display"`
	Framerate     int           `yaml:"framerate"`
}

// ViewerConfig controls the external viewer launched beside file playback.
type ViewerConfig struct {
	Enabled bool          `yaml:"enabled"`
	Warmup  time.Duration `yaml:"warmup"`
}

// ServerConfig controls the websocket stream server. An empty Listen
// disables it.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the default configuration.
func Default() *Config {
	retry := textreel.DefaultCaptureRetry()

	return &Config{
		Width:       200,
		Height:      50,
		Color:       "256",
		Brightness:  "luma",
		Resample:    "box",
		Speed:       1,
		FPSFallback: textreel.DefaultFPS,
		Sink:        SinkANSI,
		Live: LiveConfig{
			TickBudget:    textreel.DefaultTickBudget,
			Retries:       retry.MaxRetries,
			RetryDelay:    retry.Delay,
			MaxRetryDelay: retry.MaxDelay,
			Framerate:     60,
		},
		Viewer: ViewerConfig{
			Warmup: textreel.DefaultViewerWarmup,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values textreel cannot run with.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Width > textreel.MaxGridSide || c.Height > textreel.MaxGridSide {
		return fmt.Errorf("width and height must be at most %d, got %dx%d",
			textreel.MaxGridSide, c.Width, c.Height)
	}
	if _, err := c.ColorMode(); err != nil {
		return err
	}
	if _, err := c.BrightnessPolicy(); err != nil {
		return err
	}
	if _, err := c.Resampling(); err != nil {
		return err
	}
	if c.Speed <= 0 {
		return errors.New("speed must be positive")
	}
	if c.FPSFallback <= 0 {
		return errors.New("fps_fallback must be positive")
	}
	if c.HTMLMinLightness < 0 || c.HTMLMinLightness > 1 {
		return errors.New("html_min_lightness must be between 0 and 1")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}

	switch c.Sink {
	case SinkANSI, SinkScreen, SinkNone:
	case SinkPNG, SinkHTML:
		if c.Output == "" {
			return fmt.Errorf("sink %q requires an output path", c.Sink)
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}

	if c.Live.TickBudget <= 0 {
		return errors.New("live.tick_budget must be positive")
	}
	if c.Live.Retries < 0 {
		return errors.New("live.retries must not be negative")
	}
	if c.Live.RetryDelay < 0 || c.Live.MaxRetryDelay < c.Live.RetryDelay {
		return errors.New("live.retry_delay must be between 0 and live.max_retry_delay")
	}
	if c.Live.Framerate <= 0 {
		return errors.New("live.framerate must be positive")
	}
	if c.Viewer.Warmup < 0 {
		return errors.New("viewer.warmup must not be negative")
	}

	return nil
}

// ColorMode returns the parsed color mode.
func (c *Config) ColorMode() (textreel.ColorMode, error) {
	return textreel.ParseColorMode(c.Color)
}

// BrightnessPolicy returns the parsed brightness policy.
func (c *Config) BrightnessPolicy() (textreel.BrightnessPolicy, error) {
	return textreel.ParseBrightnessPolicy(c.Brightness)
}

// Resampling returns the parsed resampling policy.
func (c *Config) Resampling() (textreel.Resampling, error) {
	return textreel.ParseResampling(c.Resample)
}

// CaptureRetry returns the live capture retry policy.
func (c *Config) CaptureRetry() textreel.CaptureRetry {
	return textreel.CaptureRetry{
		MaxRetries: c.Live.Retries,
		Delay:      c.Live.RetryDelay,
		MaxDelay:   c.Live.MaxRetryDelay,
	}
}
