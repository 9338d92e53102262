package imageprocessor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// Registers the WebP decoder with image.Decode, which imaging uses.
	_ "golang.org/x/image/webp"
)

// StandardImageLoader handles common image formats like JPEG, PNG, etc.
type StandardImageLoader struct {
	BaseImageLoader
	autoOrient bool
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader(opts LoaderOptions) *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
		autoOrient: opts.AutoOrient,
	}
}

// LoadImage decodes the file, applying EXIF orientation when enabled
func (l *StandardImageLoader) LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(l.autoOrient))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
