// Package imageprocessor decodes image files and computes their perceptual fingerprints.
package imageprocessor

import "image"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file into pixels
	LoadImage(path string) (image.Image, error)
}

// LoaderOptions control how every registered loader decodes files
type LoaderOptions struct {
	// AutoOrient rotates decoded pixels according to the EXIF orientation tag.
	AutoOrient bool
}
