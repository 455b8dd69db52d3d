package textreel

import "testing"

func TestGlyphFor(t *testing.T) {
	tests := []struct {
		brightness int
		want       byte
	}{
		{0, ' '},
		{24, ' '},
		{25, '.'},
		{49, '.'},
		{50, ':'},
		{224, '%'},
		{225, '@'},
		{249, '@'},
		{250, '@'},
		{255, '@'},
		{-1, ' '},
	}

	for _, test := range tests {
		if got := GlyphFor(test.brightness); got != test.want {
			t.Errorf("GlyphFor(%d) = %q, want %q", test.brightness, got, test.want)
		}
	}
}

func TestGlyphIndexMonotonic(t *testing.T) {
	last := 0
	for b := 0; b <= 255; b++ {
		index := GlyphIndex(b)
		if index < last || index > len(Ramp)-1 {
			t.Fatalf("GlyphIndex(%d) = %d after %d", b, index, last)
		}
		last = index
	}
}

func TestBrightness(t *testing.T) {
	tests := []struct {
		policy  BrightnessPolicy
		r, g, b int
		want    int
	}{
		{Luma, 255, 255, 255, 255},
		{Luma, 0, 0, 0, 0},
		{Luma, 255, 0, 0, 76},
		{Luma, 0, 255, 0, 149},
		{Luma, 0, 0, 255, 29},
		{Average, 255, 255, 255, 255},
		{Average, 255, 0, 0, 85},
		{Average, 10, 20, 31, 20},
	}

	for _, test := range tests {
		got := test.policy.Brightness(test.r, test.g, test.b)
		if got != test.want {
			t.Errorf("%v brightness of (%d, %d, %d) = %d, want %d",
				test.policy, test.r, test.g, test.b, got, test.want)
		}
	}
}
