package textreel

// FrameBuffer is the complete, pre-rendered sequence of glyph grids of a
// finite source. It cannot be modified once built.
type FrameBuffer struct {
	frames []*GlyphGrid
	fps    float64
}

// NewFrameBuffer returns a buffer holding frames at the given frame rate.
// The frames slice is owned by the buffer afterwards.
func NewFrameBuffer(frames []*GlyphGrid, fps float64) *FrameBuffer {
	return &FrameBuffer{
		frames: frames,
		fps:    fps,
	}
}

// Len returns the number of frames.
func (f *FrameBuffer) Len() int {
	return len(f.frames)
}

// Frame returns frame i. Callers must not modify it.
func (f *FrameBuffer) Frame(i int) *GlyphGrid {
	return f.frames[i]
}

// FPS returns the source frame rate.
func (f *FrameBuffer) FPS() float64 {
	return f.fps
}
