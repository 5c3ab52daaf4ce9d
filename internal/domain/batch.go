package domain

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// MaxBatchImages is the largest batch a caller may submit. The pipeline
// assumes callers have already enforced it.
const MaxBatchImages = 20

// MaxSourcePixels caps the decoded raster of one upload (8192x8192). Headers
// declaring more are refused before any pixel buffer is allocated.
const MaxSourcePixels = 8192 * 8192

// BatchTooLargeMessage is what callers show when ErrBatchTooLarge is returned.
const BatchTooLargeMessage = "You can upload a maximum of 20 images. Please reduce the number of images."

// ArchiveFilename is the download name offered for a finished batch.
const ArchiveFilename = "upscaled_images_4k.zip"

var (
	ErrDecode            = errors.New("decode image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidDimension  = errors.New("invalid image dimensions")
	ErrEncode            = errors.New("encode image")
	ErrArchiveWrite      = errors.New("write archive")

	ErrEmptyBatch    = errors.New("batch must contain at least one image")
	ErrBatchTooLarge = errors.New("batch too large")
)

// UserMessage renders err for the person who submitted the batch.
func UserMessage(err error) string {
	if errors.Is(err, ErrBatchTooLarge) {
		return BatchTooLargeMessage
	}
	return err.Error()
}

// Upload is one raw image as received from a caller.
type Upload struct {
	Name string
	Data []byte
}

// NamedImage pairs a decoded image with its unique archive member name.
type NamedImage struct {
	Name  string
	Image image.Image
}

func ValidateBatch(uploads []Upload) error {
	if len(uploads) == 0 {
		return ErrEmptyBatch
	}
	if len(uploads) > MaxBatchImages {
		return ErrBatchTooLarge
	}
	for i, upload := range uploads {
		if strings.TrimSpace(upload.Name) == "" {
			return fmt.Errorf("uploads[%d].name is required", i)
		}
		if len(upload.Data) == 0 {
			return fmt.Errorf("uploads[%d] (%s) is empty", i, upload.Name)
		}
	}
	return nil
}
