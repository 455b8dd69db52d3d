package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/tmpim/textreel/config"
)

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textreel.yaml")
	if err := os.WriteFile(path, []byte("width: 120\nheight: 40\ncolor: truecolor\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for name, value := range map[string]string{
		"config": path,
		"h":      "30",
		"sink":   "none",
		"listen": "127.0.0.1:0",
	} {
		if err := flag.Set(name, value); err != nil {
			t.Fatalf("set -%s: %v", name, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Width != 120 {
		t.Errorf("width = %d, want 120 from the file", cfg.Width)
	}
	if cfg.Height != 30 {
		t.Errorf("height = %d, want 30 from the flag", cfg.Height)
	}
	if cfg.Color != "truecolor" || cfg.Sink != config.SinkNone || cfg.Server.Listen != "127.0.0.1:0" {
		t.Errorf("unexpected configuration %+v", cfg)
	}
	if cfg.Resample != "box" {
		t.Errorf("resample = %q, want the default", cfg.Resample)
	}
}

func TestIsReel(t *testing.T) {
	if !isReel("movie.TXRL") || isReel("movie.mp4") || isReel("-") {
		t.Error("reel detection is wrong")
	}
}
