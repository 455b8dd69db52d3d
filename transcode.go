package textreel

import (
	"image"
	"image/color"
)

// Transcoder converts pixel grids into glyph grids. Every pixel is mapped on
// its own: its brightness picks the glyph and its color is quantized for
// the configured mode.
type Transcoder struct {
	Mode       ColorMode
	Brightness BrightnessPolicy
}

// NewTranscoder returns a transcoder with the given color mode and
// brightness policy. Zero values select ANSI256 and Luma.
func NewTranscoder(mode ColorMode, policy BrightnessPolicy) *Transcoder {
	if mode == 0 {
		mode = ANSI256
	}
	if policy == 0 {
		policy = Luma
	}
	return &Transcoder{Mode: mode, Brightness: policy}
}

// Cell transcodes a single pixel.
func (t *Transcoder) Cell(r, g, b int) Cell {
	r, g, b = clampChannel(r), clampChannel(g), clampChannel(b)
	return Cell{
		Glyph: GlyphFor(t.Brightness.Brightness(r, g, b)),
		Color: RGB{uint8(r), uint8(g), uint8(b)},
		Token: Quantize(t.Mode, r, g, b),
	}
}

// Transcode converts img into a newly allocated glyph grid of the same
// dimensions. The alpha channel is ignored.
func (t *Transcoder) Transcode(img image.Image) *GlyphGrid {
	bounds := img.Bounds()
	grid := NewGlyphGrid(bounds.Dx(), bounds.Dy(), t.mode())

	if rgba, ok := img.(*image.RGBA); ok {
		for y, row := range grid.Rows {
			offset := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := range row {
				pix := rgba.Pix[offset+x*4 : offset+x*4+3 : offset+x*4+3]
				row[x] = t.Cell(int(pix[0]), int(pix[1]), int(pix[2]))
			}
		}
		return grid
	}

	for y, row := range grid.Rows {
		for x := range row {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			row[x] = t.Cell(int(c.R), int(c.G), int(c.B))
		}
	}

	return grid
}

func (t *Transcoder) mode() ColorMode {
	if t.Mode == 0 {
		return ANSI256
	}
	return t.Mode
}
