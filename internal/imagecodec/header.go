package imagecodec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dunamismax/batch4k/internal/domain"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// checkHeaderDimensions reports non-positive dimensions declared in a PNG
// IHDR chunk as ErrInvalidDimension instead of a generic decode failure.
func checkHeaderDimensions(data []byte) error {
	if len(data) < 24 || !bytes.HasPrefix(data, pngSignature) || string(data[12:16]) != "IHDR" {
		return nil
	}
	width := int32(binary.BigEndian.Uint32(data[16:20]))
	height := int32(binary.BigEndian.Uint32(data[20:24]))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: source %dx%d", domain.ErrInvalidDimension, width, height)
	}
	return nil
}
