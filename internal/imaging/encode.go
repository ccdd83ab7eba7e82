package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
)

// Payload is an image ready to cross the tool boundary.
type Payload struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeImage PNG-encodes a raster and wraps it as a base64 payload.
func EncodeImage(img image.Image) (*Payload, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &Payload{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// EncodeFile reads an image file and returns its bytes as a base64 payload
// without re-encoding.
//
// The file must be a decodable image; its header is parsed to report the
// dimensions and the MIME type.
func EncodeFile(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &Payload{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/" + format,
	}, nil
}

// Scale resizes an image by factor using Lanczos resampling.
//
// A factor of 1.0 returns img unchanged. The result is at least 1x1.
func Scale(img image.Image, factor float64) (image.Image, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("scale factor must be positive, got %v", factor)
	}
	if factor == 1.0 {
		return img, nil
	}

	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
