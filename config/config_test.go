package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tmpim/textreel"
)

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "textreel.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}

	if cfg.Width != 200 || cfg.Height != 50 {
		t.Errorf("default size = %dx%d", cfg.Width, cfg.Height)
	}
	if mode, _ := cfg.ColorMode(); mode != textreel.ANSI256 {
		t.Errorf("default color mode = %v", mode)
	}
	if policy, _ := cfg.BrightnessPolicy(); policy != textreel.Luma {
		t.Errorf("default brightness = %v", policy)
	}
	if cfg.CaptureRetry() != textreel.DefaultCaptureRetry() {
		t.Errorf("default retry = %+v", cfg.CaptureRetry())
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
width: 230
height: 125
color: truecolor
speed: 0.25
sink: png
output: frames
live:
  tick_budget: 33ms
  retries: 2
viewer:
  enabled: true
server:
  listen: ":9999"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Width != 230 || cfg.Height != 125 || cfg.Speed != 0.25 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if mode, _ := cfg.ColorMode(); mode != textreel.TrueColor {
		t.Errorf("color mode = %v", mode)
	}
	if cfg.Live.TickBudget != 33*time.Millisecond || cfg.Live.Retries != 2 {
		t.Errorf("live = %+v", cfg.Live)
	}
	if cfg.Live.Framerate != 60 || cfg.Brightness != "luma" {
		t.Error("unset keys did not keep their defaults")
	}
	if !cfg.Viewer.Enabled || cfg.Viewer.Warmup != time.Second || cfg.Server.Listen != ":9999" {
		t.Errorf("viewer = %+v, server = %+v", cfg.Viewer, cfg.Server)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"color":   "color: 16\n",
		"size":    "width: 0\n",
		"large":   "width: 70000\n",
		"light":   "html_min_lightness: 1.5\n",
		"speed":   "speed: -1\n",
		"sink":    "sink: printer\n",
		"output":  "sink: html\n",
		"retries": "live:\n  retries: -1\n",
		"syntax":  "width: [\n",
	}

	for name, data := range tests {
		if _, err := Load(writeConfig(t, data)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil ||
		!strings.Contains(err.Error(), "failed to read") {
		t.Errorf("missing file: got %v", err)
	}
}
