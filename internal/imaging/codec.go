package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyPayload is wrapped by DecodeError when the payload carries no bytes.
var ErrEmptyPayload = errors.New("empty image payload")

// TransportError reports a payload whose text is not valid base64.
//
// It is distinct from DecodeError so callers can tell a damaged transport
// encoding apart from a damaged image container.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("invalid base64 payload: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports bytes that could not be decoded into a raster.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodePayload converts the text-safe transport encoding back into raw image
// bytes.
//
// Accepted forms:
//   - standard base64 with or without padding
//   - the same, prefixed by a data URI header ("data:image/png;base64,")
//   - either of the above with embedded whitespace or line breaks
//
// Returns *TransportError when the text is not base64 and *DecodeError when
// it decodes to zero bytes.
func DecodePayload(payload string) ([]byte, error) {
	text := payload
	if strings.HasPrefix(text, "data:") {
		if idx := strings.Index(text, ","); idx >= 0 {
			text = text[idx+1:]
		}
	}
	text = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, text)

	if text == "" {
		return nil, &DecodeError{Err: ErrEmptyPayload}
	}

	enc := base64.StdEncoding
	if !strings.HasSuffix(text, "=") && len(text)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data, err := enc.DecodeString(text)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Err: ErrEmptyPayload}
	}
	return data, nil
}

// DecodeBytes decodes raw container bytes (PNG, JPEG, GIF, BMP, TIFF, WebP)
// into a color raster.
//
// Decoder panics on malformed input are converted to *DecodeError.
func DecodeBytes(data []byte) (img image.Image, err error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: ErrEmptyPayload}
	}

	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = &DecodeError{Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	img, err = imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("image has zero size %dx%d", b.Dx(), b.Dy())}
	}
	return img, nil
}

// DecodeColor decodes a base64 payload into a color raster.
func DecodeColor(payload string) (image.Image, error) {
	data, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// DecodeGray decodes a base64 payload directly into a single-channel raster.
func DecodeGray(payload string) (*image.Gray, error) {
	img, err := DecodeColor(payload)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

// Luma weights (ITU-R BT.601), the same ones OpenCV uses for BGR2GRAY.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// ToGray converts a raster to 8-bit grayscale using BT.601 luma weights. An
// *image.Gray input is returned unchanged. The result has a zero origin.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	if img.Bounds().Min != (image.Point{}) {
		img = imaging.Clone(img)
	}

	// bild returns an RGBA image with equal channels; keep one of them
	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return gray
}
