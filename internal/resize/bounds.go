package resize

import (
	"fmt"

	"github.com/dunamismax/batch4k/internal/domain"
)

// 4K UHD bounding box.
const (
	TargetWidth  = 3840
	TargetHeight = 2160
)

type Bounds struct {
	Width  int
	Height int
}

var UHD = Bounds{Width: TargetWidth, Height: TargetHeight}

func (b Bounds) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: bounds %dx%d", domain.ErrInvalidDimension, b.Width, b.Height)
	}
	return nil
}

func AspectRatio(width, height int) (float64, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: source %dx%d", domain.ErrInvalidDimension, width, height)
	}
	return float64(width) / float64(height), nil
}

// FitDimensions returns the size a width x height image is resampled to.
//
// Landscape sources (aspect ratio strictly greater than 1) take the box width
// and a truncated height. Everything else, exact squares included, takes the
// box height and a truncated width. The square tie-break is relied on by
// existing archives and must not be changed.
//
// Truncation uses integer arithmetic, which is the exact floor of the real
// quotient. A result that truncates to 0 is clamped to 1.
func FitDimensions(width, height int, b Bounds) (int, int, error) {
	if err := b.Validate(); err != nil {
		return 0, 0, err
	}
	if _, err := AspectRatio(width, height); err != nil {
		return 0, 0, err
	}

	w, h := int64(width), int64(height)
	if w > h {
		return b.Width, clampMin1(int64(b.Width) * h / w), nil
	}
	return clampMin1(int64(b.Height) * w / h), b.Height, nil
}

func clampMin1(v int64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
