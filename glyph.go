package textreel

import (
	"errors"
	"strings"
)

// Ramp is the glyph ramp ordered from the sparsest to the densest glyph.
const Ramp = " .:-=+*#%@"

// bucketWidth is the brightness span covered by each glyph. The last glyph
// also absorbs the remainder above 225.
const bucketWidth = 25

// BrightnessPolicy selects how a pixel's brightness is derived from its
// color channels.
type BrightnessPolicy uint8

// Possible brightness policies.
const (
	// Luma weighs channels by perceived brightness (0.299, 0.587, 0.114).
	Luma = BrightnessPolicy(iota + 1)
	// Average is the unweighted mean of the three channels.
	Average
)

// ParseBrightnessPolicy parses a brightness policy name.
func ParseBrightnessPolicy(name string) (BrightnessPolicy, error) {
	switch strings.ToLower(name) {
	case "luma", "perceptual":
		return Luma, nil
	case "average", "mean":
		return Average, nil
	}

	return 0, errors.New("textreel: unknown brightness policy: " + name)
}

func (p BrightnessPolicy) String() string {
	if p == Average {
		return "average"
	}
	return "luma"
}

// Brightness returns the brightness of a color in the range 0-255.
func (p BrightnessPolicy) Brightness(r, g, b int) int {
	r, g, b = clampChannel(r), clampChannel(g), clampChannel(b)
	if p == Average {
		return (r + g + b) / 3
	}
	return (299*r + 587*g + 114*b) / 1000
}

// GlyphIndex returns the ramp index for a brightness value.
func GlyphIndex(brightness int) int {
	if brightness < 0 {
		return 0
	}
	return min(len(Ramp)-1, brightness/bucketWidth)
}

// GlyphFor returns the ramp glyph for a brightness value.
func GlyphFor(brightness int) byte {
	return Ramp[GlyphIndex(brightness)]
}
