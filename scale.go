package textreel

import (
	"errors"
	"image"
	"strings"

	"github.com/disintegration/gift"
)

// Resampling selects how frames are reduced to the working grid size.
type Resampling uint8

// Possible resampling policies.
const (
	// Box averages the source area covered by each target pixel.
	Box = Resampling(iota + 1)
	// Nearest picks the nearest source pixel.
	Nearest
)

// ParseResampling parses a resampling policy name.
func ParseResampling(name string) (Resampling, error) {
	switch strings.ToLower(name) {
	case "box", "area":
		return Box, nil
	case "nearest", "nn":
		return Nearest, nil
	}

	return 0, errors.New("textreel: unknown resampling: " + name)
}

func (r Resampling) String() string {
	if r == Nearest {
		return "nearest"
	}
	return "box"
}

// Scaler resizes frames to a fixed width and height, ignoring the source
// aspect ratio.
type Scaler struct {
	Width  int
	Height int

	filter *gift.GIFT
}

// NewScaler returns a scaler producing width x height images.
func NewScaler(width, height int, resampling Resampling) *Scaler {
	var res gift.Resampling = gift.BoxResampling
	if resampling == Nearest {
		res = gift.NearestNeighborResampling
	}

	filter := gift.New(gift.Resize(width, height, res))
	filter.SetParallelization(false)

	return &Scaler{
		Width:  width,
		Height: height,
		filter: filter,
	}
}

// Scale returns img resized to the scaler's dimensions. Images that are
// already *image.RGBA of the right size are returned as is. Scale is safe for
// concurrent use.
func (s *Scaler) Scale(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Dx() == s.Width && bounds.Dy() == s.Height {
		return rgba
	}

	dst := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	s.filter.Draw(dst, img)
	return dst
}
