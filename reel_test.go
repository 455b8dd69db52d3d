package textreel

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestReelRoundTrip(t *testing.T) {
	frames := []*GlyphGrid{testGrid(TrueColor), testGrid(TrueColor), testGrid(TrueColor)}
	frames[1].Rows[0][0].Glyph = '#'

	var buf bytes.Buffer
	if err := WriteReel(&buf, NewFrameBuffer(frames, 23.976)); err != nil {
		t.Fatalf("WriteReel: %v", err)
	}

	fb, err := ReadReel(&buf)
	if err != nil {
		t.Fatalf("ReadReel: %v", err)
	}

	if fb.Len() != len(frames) {
		t.Fatalf("read %d frames, want %d", fb.Len(), len(frames))
	}
	if fb.FPS() != 23.976 {
		t.Errorf("fps = %v, want 23.976", fb.FPS())
	}
	if got := fb.Frame(1).String(); got != frames[1].String() {
		t.Errorf("frame 1 = %q, want %q", got, frames[1].String())
	}
}

func TestReelEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReel(&buf, NewFrameBuffer(nil, 30)); err != nil {
		t.Fatalf("WriteReel: %v", err)
	}

	if _, err := ReadReel(&buf); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestReelNotAReel(t *testing.T) {
	if _, err := ReadReel(bytes.NewReader([]byte("definitely not zstd"))); err == nil {
		t.Fatal("expected an error reading garbage")
	}
}

func TestReelInvalidFrameRate(t *testing.T) {
	for _, fps := range []float64{math.NaN(), math.Inf(1), 0, -24} {
		var buf bytes.Buffer
		if err := WriteReel(&buf, NewFrameBuffer([]*GlyphGrid{testGrid(ANSI256)}, fps)); err != nil {
			t.Fatalf("WriteReel: %v", err)
		}

		if _, err := ReadReel(&buf); err == nil {
			t.Errorf("fps %v: expected an error", fps)
		}
	}
}
