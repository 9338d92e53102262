//go:build gocv

package imageprocessor

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	extraLoaders = append(extraLoaders, func(r *ImageLoaderRegistry, _ LoaderOptions) {
		loader := NewOpenCVImageLoader()
		for _, ext := range loader.Extensions() {
			r.RegisterLoader(ext, loader)
		}
	})
}

// OpenCVImageLoader reads the formats only OpenCV understands
type OpenCVImageLoader struct {
	BaseImageLoader
}

// NewOpenCVImageLoader creates a loader backed by gocv
func NewOpenCVImageLoader() *OpenCVImageLoader {
	return &OpenCVImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJP2, FormatPNM, FormatEXR, FormatHDR},
		},
	}
}

// LoadImage reads the file with OpenCV and converts it to an image.Image
func (l *OpenCVImageLoader) LoadImage(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	return img, nil
}
