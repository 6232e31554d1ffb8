// Package imaging normalizes uploaded background images and renders
// thumbnails of stored personalization images.
package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/printshop/personalizer/internal/domain/shared"

	// decoders for uploads in formats other than PNG
	_ "image/gif"
	_ "image/jpeg"
)

// MaxThumbnailWidth bounds the w query of the image endpoint
const MaxThumbnailWidth = 2048

// Processor converts images with disintegration/imaging
type Processor struct {
	// MaxPixels rejects uploads larger than this many pixels; zero disables the check
	MaxPixels int
}

// NewProcessor creates a processor that accepts uploads up to 40 megapixels
func NewProcessor() *Processor {
	return &Processor{MaxPixels: 40_000_000}
}

// NormalizePNG decodes an upload in any supported format, applies its EXIF
// orientation and re-encodes it as PNG. Undecodable input is InvalidInput.
func (p *Processor) NormalizePNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, shared.ErrMissingInput.WithMessage("image file is empty")
	}

	if p.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, shared.ErrInvalidInput.WithMessage("unsupported image format").Wrap(err)
		}
		if cfg.Width*cfg.Height > p.MaxPixels {
			return nil, shared.ErrInvalidInput.WithMessage(
				fmt.Sprintf("image is too large (%dx%d)", cfg.Width, cfg.Height))
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("unsupported image format").Wrap(err)
	}
	return encodePNG(img)
}

// Thumbnail scales a PNG down to width pixels, keeping the aspect ratio.
// Images already narrower than width are returned unchanged.
func (p *Processor) Thumbnail(data []byte, width int) ([]byte, error) {
	if width <= 0 || width > MaxThumbnailWidth {
		return nil, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("width must be between 1 and %d", MaxThumbnailWidth))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() <= width {
		return data, nil
	}
	return encodePNG(imaging.Resize(img, width, 0, imaging.Lanczos))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
