package imagecodec

import (
	"fmt"
	"path"
	"strings"

	"github.com/dunamismax/batch4k/internal/domain"
)

// Format is a raster format accepted at the decode boundary.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

func (f Format) String() string {
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// ParseFormat normalizes a format name or extension ("jpg", ".PNG", ...).
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, name)
	}
}

// FormatFromName maps an uploaded filename to its format by extension.
func FormatFromName(filename string) (Format, error) {
	ext := path.Ext(strings.ReplaceAll(filename, `\`, "/"))
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", domain.ErrUnsupportedFormat, filename)
	}
	return ParseFormat(ext)
}
