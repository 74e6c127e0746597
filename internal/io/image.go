package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// DefaultCoverSize is the longest side of a prepared cover, in pixels.
const DefaultCoverSize = 1000

// ImageService prepares album cover images for embedding.
//
// Covers arrive as JPEG photos, PNG or WebP documents. They are scaled
// down to fit a square box and always re-encoded as JPEG, the format ID3
// players handle best.
//
// Example usage:
//
//	svc := NewImageService()
//	cover, err := svc.PrepareCover(ctx, uploaded, 1000)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// PrepareCover scales data to fit within maxSize x maxSize and returns it
// as JPEG. Images already small enough are only re-encoded.
func (s *ImageService) PrepareCover(ctx context.Context, data []byte, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultCoverSize
	}
	return s.ResizeImage(ctx, data, maxSize, maxSize)
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved and smaller images are never enlarged.
// The result is JPEG-encoded at quality 90 using Catmull-Rom scaling.
//
// Example:
//
//	// A 1500x1000 image becomes 1000x667
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("decode image: empty image")
	}

	if width <= maxWidth && height <= maxHeight {
		return s.encode(img)
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		width = int(math.Round(float64(maxHeight) * ratio))
		height = maxHeight
	} else {
		height = int(math.Round(float64(maxWidth) / ratio))
		width = maxWidth
	}
	width = max(width, 1)
	height = max(height, 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return s.encode(dst)
}

// ConvertToJPEG re-encodes any supported image as JPEG.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return s.encode(img)
}

func (s *ImageService) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
