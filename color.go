package textreel

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ColorMode selects how cell colors are represented on the output surface.
type ColorMode uint8

// Possible color modes.
const (
	// ANSI256 approximates colors with the xterm 256 color palette.
	ANSI256 = ColorMode(iota + 1)
	// TrueColor passes 24-bit colors through unchanged.
	TrueColor
)

// ParseColorMode parses a color mode name as used in configuration.
func ParseColorMode(name string) (ColorMode, error) {
	switch strings.ToLower(name) {
	case "256", "ansi256", "xterm":
		return ANSI256, nil
	case "truecolor", "24bit", "rgb":
		return TrueColor, nil
	}

	return 0, errors.New("textreel: unknown color mode: " + name)
}

func (m ColorMode) String() string {
	switch m {
	case ANSI256:
		return "256"
	case TrueColor:
		return "truecolor"
	}
	return "ColorMode(" + strconv.Itoa(int(m)) + ")"
}

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// ColorToken is a quantized color: either a 24-bit passthrough or an index
// into the xterm 256 color palette.
type ColorToken struct {
	Mode  ColorMode
	Index uint8
	RGB   RGB
}

// Quantize maps r, g, b to a color token for the given mode. Channel values
// outside of 0-255 are clamped.
func Quantize(mode ColorMode, r, g, b int) ColorToken {
	r, g, b = clampChannel(r), clampChannel(g), clampChannel(b)

	if mode == TrueColor {
		return ColorToken{
			Mode: TrueColor,
			RGB:  RGB{uint8(r), uint8(g), uint8(b)},
		}
	}

	return ColorToken{
		Mode:  ANSI256,
		Index: ANSI256Index(r, g, b),
	}
}

// ANSI256Index returns the xterm 256 color palette index that approximates
// the given color. Achromatic colors use the 24 step grayscale ramp, all
// others use the 6x6x6 color cube.
func ANSI256Index(r, g, b int) uint8 {
	r, g, b = clampChannel(r), clampChannel(g), clampChannel(b)

	if r == g && g == b {
		if r < 8 {
			return 16
		}
		if r > 248 {
			return 231
		}
		return uint8(math.Round(float64(r-8)/247*24) + 232)
	}

	return uint8(16 + 36*cubeStep(r) + 6*cubeStep(g) + cubeStep(b))
}

func cubeStep(v int) int {
	return int(math.Round(float64(v) / 255 * 5))
}

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// PaletteRGB returns the color xterm displays for a 256 color palette index.
// The first 16 system colors follow the xterm defaults.
func PaletteRGB(index uint8) RGB {
	switch {
	case index < 16:
		return systemColors[index]
	case index >= 232:
		v := 8 + 10*(index-232)
		return RGB{v, v, v}
	}

	i := index - 16
	return RGB{
		R: cubeLevels[i/36],
		G: cubeLevels[(i/6)%6],
		B: cubeLevels[i%6],
	}
}

var systemColors = [16]RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// Display returns the color the token is displayed as.
func (t ColorToken) Display() RGB {
	if t.Mode == TrueColor {
		return t.RGB
	}
	return PaletteRGB(t.Index)
}

// AppendEscape appends the SGR foreground escape sequence for the token.
func (t ColorToken) AppendEscape(buf []byte) []byte {
	if t.Mode == TrueColor {
		buf = append(buf, "\x1b[38;2;"...)
		buf = strconv.AppendUint(buf, uint64(t.RGB.R), 10)
		buf = append(buf, ';')
		buf = strconv.AppendUint(buf, uint64(t.RGB.G), 10)
		buf = append(buf, ';')
		buf = strconv.AppendUint(buf, uint64(t.RGB.B), 10)
		return append(buf, 'm')
	}

	buf = append(buf, "\x1b[38;5;"...)
	buf = strconv.AppendUint(buf, uint64(t.Index), 10)
	return append(buf, 'm')
}

// Escape returns the SGR foreground escape sequence for the token.
func (t ColorToken) Escape() string {
	return string(t.AppendEscape(make([]byte, 0, 20)))
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
