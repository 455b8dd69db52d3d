package sink

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tmpim/textreel"
)

func whiteBlack(mode textreel.ColorMode) *textreel.GlyphGrid {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{0, 0, 0, 255})
	return textreel.NewTranscoder(mode, textreel.Average).Transcode(img)
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	if err := term.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := buf.String(); got != "\x1b[0m\x1b[2J\x1b[H" {
		t.Errorf("Reset wrote %q", got)
	}

	buf.Reset()
	if err := term.WriteFrame(whiteBlack(textreel.ANSI256)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if got, want := buf.String(), "\x1b[H\x1b[38;5;231m@\x1b[38;5;16m \x1b[0m\n"; got != want {
		t.Errorf("WriteFrame wrote %q, want %q", got, want)
	}

	buf.Reset()
	term.WriteFrame(whiteBlack(textreel.TrueColor))
	if got, want := buf.String(), "\x1b[H\x1b[38;2;255;255;255m@\x1b[38;2;0;0;0m \x1b[0m\n"; got != want {
		t.Errorf("WriteFrame wrote %q, want %q", got, want)
	}
}

func TestTerminalRepeatsColorOnlyOnChange(t *testing.T) {
	grid := textreel.NewGlyphGrid(3, 2, textreel.ANSI256)
	transcoder := textreel.NewTranscoder(textreel.ANSI256, textreel.Luma)
	for _, row := range grid.Rows {
		for x := range row {
			row[x] = transcoder.Cell(255, 0, 0)
		}
	}

	var buf bytes.Buffer
	NewTerminal(&buf).WriteFrame(grid)

	if n := strings.Count(buf.String(), "\x1b[38;5;196m"); n != 2 {
		t.Errorf("color escape written %d times, want once per row", n)
	}
}

func TestScreen(t *testing.T) {
	sim := tcell.NewSimulationScreen("ansi")
	if err := sim.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	quit := make(chan struct{})
	screen := NewScreenWith(sim, func() { close(quit) })
	defer screen.Close()

	if err := screen.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := screen.WriteFrame(whiteBlack(textreel.ANSI256)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r, _, style, _ := sim.GetContent(0, 0)
	fg, _, _ := style.Decompose()
	if r != '@' || fg != tcell.PaletteColor(231) {
		t.Errorf("cell (0, 0) = %q %v", r, fg)
	}

	screen.WriteFrame(whiteBlack(textreel.TrueColor))
	_, _, style, _ = sim.GetContent(0, 0)
	if fg, _, _ := style.Decompose(); fg != tcell.NewRGBColor(255, 255, 255) {
		t.Errorf("truecolor cell foreground = %v", fg)
	}

	if err := sim.PostEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}

	select {
	case <-quit:
	case <-time.After(5 * time.Second):
		t.Fatal("escape did not quit")
	}

	<-screen.Done()
	if err := screen.WriteFrame(whiteBlack(textreel.ANSI256)); !errors.Is(err, textreel.ErrSinkClosed) {
		t.Errorf("WriteFrame after quit: got %v", err)
	}
}

func TestScreenQuitKey(t *testing.T) {
	sim := tcell.NewSimulationScreen("ansi")
	if err := sim.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	screen := NewScreenWith(sim, nil)
	defer screen.Close()

	sim.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	sim.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))

	select {
	case <-screen.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("q did not quit")
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	h := NewHTML(&buf)

	h.Reset()
	if err := h.WriteFrame(whiteBlack(textreel.ANSI256)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<pre><span style="color:#ffffff">@</span><span style="color:#000000"> </span>`,
		"</body></html>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("document does not contain %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "<!DOCTYPE html>") != 1 {
		t.Error("header written more than once")
	}
}

func TestHTMLMinLightness(t *testing.T) {
	grid := textreel.NewGlyphGrid(2, 1, textreel.TrueColor)
	transcoder := textreel.NewTranscoder(textreel.TrueColor, textreel.Luma)
	grid.Rows[0][0] = transcoder.Cell(40, 10, 10)
	grid.Rows[0][0].Glyph = '.'
	grid.Rows[0][1] = transcoder.Cell(255, 255, 255)

	var buf bytes.Buffer
	h := NewHTML(&buf)
	h.MinLightness = 0.4
	h.WriteFrame(grid)
	h.Close()

	out := buf.String()
	if !strings.Contains(out, "color:#ffffff") {
		t.Error("a light color was changed")
	}
	if strings.Contains(out, "color:#280a0a") {
		t.Fatal("a dark color was not lifted")
	}

	start := strings.Index(out, "color:#") + len("color:")
	lifted, err := colorful.Hex(out[start : start+7])
	if err != nil {
		t.Fatalf("parse %q: %v", out[start:start+7], err)
	}
	if _, _, l := lifted.Hcl(); l < 0.38 {
		t.Errorf("lifted lightness = %v, want about 0.4", l)
	}
	if r, g, b := lifted.RGB255(); r <= g || r <= b {
		t.Errorf("lifted color #%02x%02x%02x lost its red hue", r, g, b)
	}
}

func TestPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")

	p, err := NewPNG(dir, 0)
	if err != nil {
		t.Fatalf("NewPNG: %v", err)
	}

	grid := whiteBlack(textreel.TrueColor)
	for i := 0; i < 2; i++ {
		if err := p.WriteFrame(grid); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	for _, name := range []string{"frame_000000.png", "frame_000001.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	img := p.Render(grid)
	if img.Bounds() != image.Rect(0, 0, 2*DefaultCellSize, DefaultCellSize) {
		t.Fatalf("rendered bounds = %v", img.Bounds())
	}

	lit := func(x0, x1 int) bool {
		for y := 0; y < DefaultCellSize; y++ {
			for x := x0; x < x1; x++ {
				if c := img.RGBAAt(x, y); c.R > 0 || c.G > 0 || c.B > 0 {
					return true
				}
			}
		}
		return false
	}
	if !lit(0, DefaultCellSize) {
		t.Error("the '@' cell is blank")
	}
	if lit(DefaultCellSize, 2*DefaultCellSize) {
		t.Error("the ' ' cell is not blank")
	}
}

type failingSink struct{ err error }

func (f failingSink) Reset() error                          { return nil }
func (f failingSink) WriteFrame(*textreel.GlyphGrid) error { return f.err }

func TestTee(t *testing.T) {
	var a, b bytes.Buffer
	tee := Tee{NewTerminal(&a), NewTerminal(&b)}

	if err := tee.WriteFrame(whiteBlack(textreel.ANSI256)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if a.Len() == 0 || a.String() != b.String() {
		t.Errorf("sinks received %q and %q", a.String(), b.String())
	}

	tee = Tee{failingSink{textreel.ErrSinkClosed}, Discard{}}
	if err := tee.WriteFrame(whiteBlack(textreel.ANSI256)); !errors.Is(err, textreel.ErrSinkClosed) {
		t.Errorf("expected ErrSinkClosed, got %v", err)
	}
}
