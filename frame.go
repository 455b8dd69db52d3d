package textreel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Cell is a single glyph of a frame along with its color.
type Cell struct {
	Glyph byte
	Color RGB
	Token ColorToken
}

// GlyphGrid is a transcoded frame: rows of cells with the dimensions of the
// pixel grid it was produced from.
type GlyphGrid struct {
	Width  int
	Height int
	Mode   ColorMode

	Rows [][]Cell
}

// NewGlyphGrid allocates an empty grid. All rows share one backing array.
func NewGlyphGrid(width, height int, mode ColorMode) *GlyphGrid {
	cells := make([]Cell, width*height)
	rows := make([][]Cell, height)
	for y := range rows {
		rows[y] = cells[y*width : (y+1)*width : (y+1)*width]
	}

	return &GlyphGrid{
		Width:  width,
		Height: height,
		Mode:   mode,
		Rows:   rows,
	}
}

// String returns the glyphs of the grid without any color information, one
// line per row.
func (g *GlyphGrid) String() string {
	buf := make([]byte, 0, (g.Width+1)*g.Height)
	for _, row := range g.Rows {
		for _, cell := range row {
			buf = append(buf, cell.Glyph)
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// MaxGridSide is the largest width or height a grid can be encoded with.
const MaxGridSide = 1 << 14

// WriteTo writes the grid in its binary form: big endian uint16 width and
// height, a mode byte, then glyph, r, g, b for every cell in row order.
func (g *GlyphGrid) WriteTo(w io.Writer) (int64, error) {
	if g.Width > MaxGridSide || g.Height > MaxGridSide {
		return 0, fmt.Errorf("textreel: WriteTo: grid too large: %dx%d", g.Width, g.Height)
	}

	wr := bufio.NewWriter(w)

	var header [5]byte
	binary.BigEndian.PutUint16(header[0:], uint16(g.Width))
	binary.BigEndian.PutUint16(header[2:], uint16(g.Height))
	header[4] = byte(g.Mode)

	total := int64(0)
	n, err := wr.Write(header[:])
	total += int64(n)
	if err != nil {
		return total, err
	}

	var data [4]byte
	for _, row := range g.Rows {
		for _, cell := range row {
			data = [4]byte{cell.Glyph, cell.Color.R, cell.Color.G, cell.Color.B}
			n, err = wr.Write(data[:])
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}

	return total, wr.Flush()
}

// ReadGrid reads a grid written by GlyphGrid.WriteTo. Color tokens are
// recomputed from the stored colors. io.EOF is returned if the reader is
// exhausted before the header.
func ReadGrid(r io.Reader) (*GlyphGrid, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, errors.New("textreel: ReadGrid: truncated header")
		}
		return nil, err
	}

	width := int(binary.BigEndian.Uint16(header[0:]))
	height := int(binary.BigEndian.Uint16(header[2:]))
	mode := ColorMode(header[4])

	if width > MaxGridSide || height > MaxGridSide {
		return nil, fmt.Errorf("textreel: ReadGrid: grid too large: %dx%d", width, height)
	}
	if mode != ANSI256 && mode != TrueColor {
		return nil, fmt.Errorf("textreel: ReadGrid: invalid color mode %d", header[4])
	}

	data := make([]byte, width*height*4)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("textreel: ReadGrid: truncated cells: %w", err)
	}

	grid := NewGlyphGrid(width, height, mode)
	i := 0
	for _, row := range grid.Rows {
		for x := range row {
			row[x] = Cell{
				Glyph: data[i],
				Color: RGB{data[i+1], data[i+2], data[i+3]},
				Token: Quantize(mode, int(data[i+1]), int(data[i+2]), int(data[i+3])),
			}
			i += 4
		}
	}

	return grid, nil
}
