package resize

import (
	"fmt"
	"image"
	"strings"

	nfnt "github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

type Filter string

const (
	FilterLanczos3   Filter = "lanczos3"
	FilterCatmullRom Filter = "catmullrom"
)

func ParseFilter(name string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(name))) {
	case "", FilterLanczos3, "lanczos":
		return FilterLanczos3, nil
	case FilterCatmullRom, "bicubic":
		return FilterCatmullRom, nil
	default:
		return "", fmt.Errorf("unsupported resize filter: %s", name)
	}
}

// Resampler produces a new image of exactly width x height from src without
// modifying src.
type Resampler interface {
	Resample(src image.Image, width, height int) (image.Image, error)
	Name() string
}

func NewResampler(filter Filter) (Resampler, error) {
	switch filter {
	case FilterLanczos3, "":
		return newLanczosResampler(), nil
	case FilterCatmullRom:
		return catmullRomResampler{}, nil
	default:
		return nil, fmt.Errorf("unsupported resize filter: %s", filter)
	}
}

type lanczosResampler struct{}

func (lanczosResampler) Name() string {
	return "nfnt-lanczos3"
}

func (lanczosResampler) Resample(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("resample target %dx%d is not positive", width, height)
	}
	return nfnt.Resize(uint(width), uint(height), src, nfnt.Lanczos3), nil
}

type catmullRomResampler struct{}

func (catmullRomResampler) Name() string {
	return "xdraw-catmullrom"
}

func (catmullRomResampler) Resample(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("resample target %dx%d is not positive", width, height)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
