package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/dunamismax/batch4k/internal/domain"
)

// Config is the header-only view of an encoded image.
type Config struct {
	Format Format
	Width  int
	Height int
}

// Decode decodes data whose declared format is already on the allow-list.
// The declared format only gates admission; the content is sniffed so a PNG
// saved with a .jpg extension still decodes. The header is read first and
// sources above domain.MaxSourcePixels are refused before decoding.
func Decode(data []byte, declared Format) (image.Image, Format, error) {
	if _, err := ParseFormat(declared.String()); err != nil {
		return nil, "", err
	}
	if _, err := DecodeConfig(data); err != nil {
		return nil, "", err
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	actual, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}
	return img, actual, nil
}

// DecodeConfig reads only the image header.
func DecodeConfig(data []byte) (Config, error) {
	if err := checkHeaderDimensions(data); err != nil {
		return Config{}, err
	}
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	format, err := ParseFormat(name)
	if err != nil {
		return Config{}, err
	}
	if int64(cfg.Width)*int64(cfg.Height) > domain.MaxSourcePixels {
		return Config{}, fmt.Errorf("%w: source %dx%d exceeds %d pixels", domain.ErrInvalidDimension, cfg.Width, cfg.Height, domain.MaxSourcePixels)
	}
	return Config{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// EncodePNG serializes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: png: %w", domain.ErrEncode, err)
	}
	return buf.Bytes(), nil
}
