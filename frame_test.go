package textreel

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"testing"
)

func testGrid(mode ColorMode) *GlyphGrid {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{200, 10, 10, 255})
	img.Set(2, 0, color.RGBA{10, 200, 10, 255})
	img.Set(0, 1, color.RGBA{10, 10, 200, 255})
	img.Set(1, 1, color.RGBA{128, 128, 128, 255})
	return NewTranscoder(mode, Luma).Transcode(img)
}

func TestGridRoundTrip(t *testing.T) {
	for _, mode := range []ColorMode{ANSI256, TrueColor} {
		grid := testGrid(mode)

		var buf bytes.Buffer
		n, err := grid.WriteTo(&buf)
		if err != nil {
			t.Fatalf("WriteTo: %v", err)
		}
		if n != int64(buf.Len()) || n != 5+3*2*4 {
			t.Fatalf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
		}

		got, err := ReadGrid(&buf)
		if err != nil {
			t.Fatalf("ReadGrid: %v", err)
		}

		if got.Width != grid.Width || got.Height != grid.Height || got.Mode != grid.Mode {
			t.Fatalf("header mismatch: got %dx%d %v", got.Width, got.Height, got.Mode)
		}
		for y := range grid.Rows {
			for x := range grid.Rows[y] {
				if got.Rows[y][x] != grid.Rows[y][x] {
					t.Errorf("%v cell (%d, %d) = %+v, want %+v", mode, x, y,
						got.Rows[y][x], grid.Rows[y][x])
				}
			}
		}

		if _, err := ReadGrid(&buf); err != io.EOF {
			t.Errorf("expected io.EOF after the last grid, got %v", err)
		}
	}
}

func TestWriteGridTooLarge(t *testing.T) {
	grid := &GlyphGrid{Width: MaxGridSide + 1, Height: 1, Mode: ANSI256}

	var buf bytes.Buffer
	if _, err := grid.WriteTo(&buf); err == nil {
		t.Fatal("expected an error for an oversized grid")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes of an oversized grid", buf.Len())
	}
}

func TestReadGridInvalid(t *testing.T) {
	var buf bytes.Buffer
	testGrid(ANSI256).WriteTo(&buf)
	data := buf.Bytes()

	if _, err := ReadGrid(bytes.NewReader(data[:3])); err == nil || err == io.EOF {
		t.Errorf("truncated header: got %v", err)
	}
	if _, err := ReadGrid(bytes.NewReader(data[:len(data)-1])); err == nil || err == io.EOF {
		t.Errorf("truncated cells: got %v", err)
	}

	bad := append([]byte(nil), data...)
	bad[4] = 9
	if _, err := ReadGrid(bytes.NewReader(bad)); err == nil {
		t.Error("expected an error for an invalid color mode")
	}
}
