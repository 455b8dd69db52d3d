package textreel

import (
	"context"
	"image"
)

// VideoSource is a finite sequence of decoded frames.
type VideoSource interface {
	// FrameCount returns the number of frames the source declares. It may be
	// zero if unknown, and the actual number of frames may be lower.
	FrameCount() int
	// FPS returns the source frame rate, or zero if unknown.
	FPS() float64
	// Next returns the next frame, or io.EOF once the source is exhausted.
	// Returned images are not reused by the source.
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// Capturer captures the current screen contents once per call.
type Capturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(ctx context.Context) (image.Image, error)

// Capture calls f(ctx).
func (f CapturerFunc) Capture(ctx context.Context) (image.Image, error) {
	return f(ctx)
}

// Sink is an output surface for glyph grids.
type Sink interface {
	// WriteFrame displays a grid. Sinks whose viewer asked to quit return
	// ErrSinkClosed.
	WriteFrame(grid *GlyphGrid) error
	// Reset clears the surface and positions output at its origin. It is
	// idempotent.
	Reset() error
}
