package sink

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/tmpim/textreel"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// DefaultCellSize is the pixel size of one rendered glyph cell.
const DefaultCellSize = 8

// PNG renders every grid as an image of colored glyphs on black and saves it
// into a directory as frame_000000.png, frame_000001.png and so on.
type PNG struct {
	dir      string
	cellSize int
	face     font.Face
	encoder  png.Encoder
	index    int
	canvas   *image.RGBA
}

// NewPNG returns a sink writing frames into dir, creating it if needed.
// A cellSize of zero uses DefaultCellSize.
func NewPNG(dir string, cellSize int) (*PNG, error) {
	if cellSize == 0 {
		cellSize = DefaultCellSize
	}
	if cellSize < 4 {
		return nil, errors.New("textreel sink: png: cell size must be at least 4")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}

	return &PNG{
		dir:      dir,
		cellSize: cellSize,
		face: truetype.NewFace(ttf, &truetype.Options{
			Size:    float64(cellSize),
			DPI:     72,
			Hinting: font.HintingFull,
		}),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

// Reset restarts frame numbering.
func (p *PNG) Reset() error {
	p.index = 0
	return nil
}

// Render draws grid into a new image.
func (p *PNG) Render(grid *textreel.GlyphGrid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, grid.Width*p.cellSize, grid.Height*p.cellSize))
	p.draw(img, grid)
	return img
}

func (p *PNG) draw(img *image.RGBA, grid *textreel.GlyphGrid) {
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	src := image.NewUniform(color.RGBA{A: 255})
	d := &font.Drawer{
		Dst:  img,
		Src:  src,
		Face: p.face,
	}

	ascent := p.face.Metrics().Ascent.Ceil()

	for y, row := range grid.Rows {
		for x, cell := range row {
			if cell.Glyph == ' ' {
				continue
			}

			c := cell.Token.Display()
			src.C = color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
			d.Dot = freetype.Pt(x*p.cellSize, y*p.cellSize+min(ascent, p.cellSize))
			d.DrawBytes([]byte{cell.Glyph})
		}
	}
}

// WriteFrame renders grid and saves it as the next numbered file.
func (p *PNG) WriteFrame(grid *textreel.GlyphGrid) error {
	bounds := image.Rect(0, 0, grid.Width*p.cellSize, grid.Height*p.cellSize)
	if p.canvas == nil || p.canvas.Bounds() != bounds {
		p.canvas = image.NewRGBA(bounds)
	}
	p.draw(p.canvas, grid)

	name := filepath.Join(p.dir, fmt.Sprintf("frame_%06d.png", p.index))
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	if err := p.encoder.Encode(f, p.canvas); err != nil {
		f.Close()
		return fmt.Errorf("textreel sink: png: %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return err
	}

	p.index++
	return nil
}

// Frames returns the number of files written since the last Reset.
func (p *PNG) Frames() int {
	return p.index
}
