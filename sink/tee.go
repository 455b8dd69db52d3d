package sink

import (
	"errors"
	"io"

	"github.com/tmpim/textreel"
)

// Tee sends every frame to several sinks in order. The first error stops the
// frame from reaching the remaining sinks.
type Tee []textreel.Sink

// Reset resets every sink.
func (t Tee) Reset() error {
	for _, s := range t {
		if err := s.Reset(); err != nil {
			return err
		}
	}
	return nil
}

// WriteFrame writes grid to every sink.
func (t Tee) WriteFrame(grid *textreel.GlyphGrid) error {
	for _, s := range t {
		if err := s.WriteFrame(grid); err != nil {
			return err
		}
	}
	return nil
}

// Discard is a sink that drops every frame.
type Discard struct{}

// Reset does nothing.
func (Discard) Reset() error { return nil }

// WriteFrame does nothing.
func (Discard) WriteFrame(*textreel.GlyphGrid) error { return nil }

// Close closes every sink implementing io.Closer and joins their errors.
func Close(sinks ...textreel.Sink) error {
	var errs []error
	for _, s := range sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
