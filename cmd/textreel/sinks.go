package main

import (
	"log"
	"os"

	"github.com/tmpim/textreel"
	"github.com/tmpim/textreel/config"
	"github.com/tmpim/textreel/sink"
)

type htmlFile struct {
	*sink.HTML
	f *os.File
}

func (h *htmlFile) Close() error {
	err := h.HTML.Close()
	if closeErr := h.f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// openSink opens the output selected in cfg. quit is called when the viewer
// asks to stop from the output surface itself.
func openSink(cfg *config.Config, quit func()) (textreel.Sink, error) {
	switch cfg.Sink {
	case config.SinkScreen:
		return sink.NewScreen(quit)
	case config.SinkPNG:
		return sink.NewPNG(cfg.Output, 0)
	case config.SinkHTML:
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, err
		}
		h := sink.NewHTML(f)
		h.MinLightness = cfg.HTMLMinLightness
		return &htmlFile{HTML: h, f: f}, nil
	case config.SinkNone:
		return sink.Discard{}, nil
	}

	if w, h, ok := sink.TerminalSize(os.Stdout); ok && (w < cfg.Width || h < cfg.Height) {
		log.Printf("textreel: warning: terminal is %dx%d, smaller than the %dx%d grid",
			w, h, cfg.Width, cfg.Height)
	}
	return sink.NewTerminal(os.Stdout), nil
}
