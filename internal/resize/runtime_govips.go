//go:build govips && cgo

package resize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	startupOnce sync.Once
	shutdownMu  sync.Mutex
	started     bool
)

func Startup() error {
	startupOnce.Do(func() {
		vips.Startup(&vips.Config{
			MaxCacheFiles: 0,
			MaxCacheMem:   128 * 1024 * 1024,
			MaxCacheSize:  100,
		})

		shutdownMu.Lock()
		started = true
		shutdownMu.Unlock()
	})
	return nil
}

func Shutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if !started {
		return
	}
	vips.Shutdown()
	started = false
}

func newLanczosResampler() Resampler {
	return govipsResampler{fallback: lanczosResampler{}}
}

// govipsResampler runs Lanczos3 through libvips. libvips rounds scaled sizes
// on its own, so any result that misses the requested size by a pixel is
// redone with the pure Go resampler.
type govipsResampler struct {
	fallback Resampler
}

func (govipsResampler) Name() string {
	return "govips-lanczos3"
}

func (r govipsResampler) Resample(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("resample target %dx%d is not positive", width, height)
	}

	var buf bytes.Buffer
	if err := (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("stage source for libvips: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("load source into libvips: %w", err)
	}
	defer ref.Close()

	hscale := float64(width) / float64(ref.Width())
	vscale := float64(height) / float64(ref.Height())
	if err := ref.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
		return nil, fmt.Errorf("resize image: %w", err)
	}
	if ref.Width() != width || ref.Height() != height {
		return r.fallback.Resample(src, width, height)
	}

	out, err := ref.ToImage(vips.NewDefaultPNGExportParams())
	if err != nil {
		return nil, fmt.Errorf("export resized image: %w", err)
	}
	return out, nil
}
