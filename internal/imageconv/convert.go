package imageconv

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Output formats accepted by Encode.
const (
	FormatPNG  = "png"
	FormatWEBP = "webp"
)

// DefaultWEBPQuality is used when a caller passes a quality outside 1..100.
const DefaultWEBPQuality = 85

// Encode re-encodes data into format and returns the bytes with the file
// extension (without dot) to store them under. PNG input requested as PNG is
// returned untouched.
func Encode(data []byte, format string, quality int) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatPNG:
		if isPNG(data) {
			return data, FormatPNG, nil
		}
		out, err := ToPNG(data)
		return out, FormatPNG, err
	case FormatWEBP:
		if isWEBP(data) {
			return data, FormatWEBP, nil
		}
		out, err := ToWEBP(data, quality)
		return out, FormatWEBP, err
	default:
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}
}

// ToWEBP converts any decodable image to lossy WebP.
func ToWEBP(data []byte, quality int) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		quality = DefaultWEBPQuality
	}

	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := webp.Encode(&out, img, opts); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ToPNG converts any decodable image to PNG.
func ToPNG(data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeImage(data []byte) (image.Image, error) {
	if isWEBP(data) {
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func isWEBP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

func isPNG(data []byte) bool {
	return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
}
