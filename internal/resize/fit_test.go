package resize

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/dunamismax/batch4k/internal/domain"
)

func TestFitterUHDLandscape(t *testing.T) {
	resampler, err := NewResampler(FilterLanczos3)
	if err != nil {
		t.Fatalf("new resampler: %v", err)
	}
	fitter, err := NewFitter(UHD, resampler)
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}

	out, err := fitter.Fit(gradient(40, 20))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 3840 || b.Dy() != 1920 {
		t.Fatalf("expected 3840x1920, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestFitterFilters(t *testing.T) {
	box := Bounds{Width: 64, Height: 36}

	for _, filter := range []Filter{FilterLanczos3, FilterCatmullRom} {
		t.Run(string(filter), func(t *testing.T) {
			resampler, err := NewResampler(filter)
			if err != nil {
				t.Fatalf("new resampler: %v", err)
			}
			fitter, err := NewFitter(box, resampler)
			if err != nil {
				t.Fatalf("new fitter: %v", err)
			}

			src := gradient(10, 20)
			before := src.RGBAAt(3, 4)

			out, err := fitter.Fit(src)
			if err != nil {
				t.Fatalf("fit: %v", err)
			}
			if b := out.Bounds(); b.Dx() != 18 || b.Dy() != 36 {
				t.Fatalf("expected 18x36, got %dx%d", b.Dx(), b.Dy())
			}
			if src.Bounds().Dx() != 10 || src.RGBAAt(3, 4) != before {
				t.Fatal("expected source image to be left untouched")
			}
		})
	}
}

func TestFitterSquareTakesPortraitBranch(t *testing.T) {
	fitter, err := NewFitter(Bounds{Width: 80, Height: 45}, lanczosResampler{})
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}

	out, err := fitter.Fit(gradient(9, 9))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 45 || b.Dy() != 45 {
		t.Fatalf("expected 45x45, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestFitterRejectsEmptyImage(t *testing.T) {
	fitter, err := NewFitter(UHD, lanczosResampler{})
	if err != nil {
		t.Fatalf("new fitter: %v", err)
	}

	_, err = fitter.Fit(image.NewRGBA(image.Rect(0, 0, 10, 0)))
	if !errors.Is(err, domain.ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestNewFitterValidation(t *testing.T) {
	if _, err := NewFitter(Bounds{}, lanczosResampler{}); err == nil {
		t.Fatal("expected error for empty bounds")
	}
	if _, err := NewFitter(UHD, nil); err == nil {
		t.Fatal("expected error for missing resampler")
	}
}

func TestParseFilter(t *testing.T) {
	tests := map[string]Filter{
		"":           FilterLanczos3,
		"Lanczos3":   FilterLanczos3,
		"lanczos":    FilterLanczos3,
		"catmullrom": FilterCatmullRom,
		" bicubic ":  FilterCatmullRom,
	}
	for in, want := range tests {
		got, err := ParseFilter(in)
		if err != nil {
			t.Fatalf("ParseFilter(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFilter(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseFilter("nearest"); err == nil {
		t.Fatal("expected error for unsupported filter")
	}
}

func BenchmarkFitUHD(b *testing.B) {
	fitter, err := NewFitter(UHD, lanczosResampler{})
	if err != nil {
		b.Fatalf("new fitter: %v", err)
	}
	src := gradient(1920, 1080)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := fitter.Fit(src); err != nil {
			b.Fatalf("fit: %v", err)
		}
	}
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}
	return img
}
