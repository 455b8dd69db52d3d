// Package sink provides output surfaces for glyph grids.
package sink

import (
	"bufio"
	"io"
	"os"

	"github.com/tmpim/textreel"
	"golang.org/x/term"
)

var (
	csiHome       = []byte("\x1b[H")
	csiClear      = []byte("\x1b[2J\x1b[H")
	csiReset      = []byte("\x1b[0m")
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")
)

// Terminal writes grids as an ANSI escape sequence stream: cursor home, then
// every cell as a foreground color escape followed by its glyph, and a reset
// at the end of every row. Color escapes are only repeated when the color
// changes within a row.
type Terminal struct {
	wr         *bufio.Writer
	isTerminal bool
	buf        []byte
}

// NewTerminal returns a sink writing to w.
func NewTerminal(w io.Writer) *Terminal {
	_, _, isTerminal := TerminalSize(w)
	return &Terminal{
		wr:         bufio.NewWriterSize(w, 1<<16),
		isTerminal: isTerminal,
	}
}

// TerminalSize returns the size of w if it is a terminal.
func TerminalSize(w io.Writer) (width, height int, ok bool) {
	f, isFile := w.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return 0, 0, false
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return width, height, true
}

// Reset clears the screen and moves the cursor home. On terminals the cursor
// is hidden until Close.
func (t *Terminal) Reset() error {
	t.wr.Write(csiReset)
	t.wr.Write(csiClear)
	if t.isTerminal {
		t.wr.Write(csiCursorHide)
	}
	return t.wr.Flush()
}

// WriteFrame draws grid from the top left corner.
func (t *Terminal) WriteFrame(grid *textreel.GlyphGrid) error {
	t.wr.Write(csiHome)

	for _, row := range grid.Rows {
		buf := t.buf[:0]
		hasColor := false
		var last textreel.ColorToken

		for _, cell := range row {
			if !hasColor || cell.Token != last {
				buf = cell.Token.AppendEscape(buf)
				last = cell.Token
				hasColor = true
			}
			buf = append(buf, cell.Glyph)
		}

		buf = append(buf, csiReset...)
		buf = append(buf, '\n')
		t.buf = buf

		if _, err := t.wr.Write(buf); err != nil {
			return err
		}
	}

	return t.wr.Flush()
}

// Close restores the terminal's colors and cursor.
func (t *Terminal) Close() error {
	t.wr.Write(csiReset)
	if t.isTerminal {
		t.wr.Write(csiCursorShow)
	}
	return t.wr.Flush()
}
