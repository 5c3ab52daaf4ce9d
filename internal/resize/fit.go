package resize

import (
	"fmt"
	"image"
)

// Fitter resamples images into a fixed bounding box.
type Fitter struct {
	bounds    Bounds
	resampler Resampler
}

func NewFitter(bounds Bounds, resampler Resampler) (*Fitter, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if resampler == nil {
		return nil, fmt.Errorf("resampler is required")
	}
	return &Fitter{bounds: bounds, resampler: resampler}, nil
}

func (f *Fitter) Bounds() Bounds {
	return f.bounds
}

func (f *Fitter) Resampler() string {
	return f.resampler.Name()
}

// Fit returns a resampled copy of img sized by FitDimensions.
func (f *Fitter) Fit(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("source image is required")
	}
	srcBounds := img.Bounds()
	width, height, err := FitDimensions(srcBounds.Dx(), srcBounds.Dy(), f.bounds)
	if err != nil {
		return nil, err
	}

	out, err := f.resampler.Resample(img, width, height)
	if err != nil {
		return nil, fmt.Errorf("resample %dx%d to %dx%d: %w", srcBounds.Dx(), srcBounds.Dy(), width, height, err)
	}
	return out, nil
}
