package imageprocessor

import (
	"errors"
	"slices"
)

var (
	// ErrEmptyFile is returned for zero-byte files
	ErrEmptyFile = errors.New("file is empty")

	// ErrNotRegular is returned for directories and other non-regular files
	ErrNotRegular = errors.New("not a regular file")

	// ErrUnsupportedFormat is returned when no loader handles a file
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrNoPreview is returned when a RAW file carries no decodable preview
	ErrNoPreview = errors.New("no embedded preview found")
)

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	return slices.Contains(l.SupportedFormats, GetFileFormat(path))
}

// Extensions returns the file extensions of the loader's formats
func (l *BaseImageLoader) Extensions() []string {
	return ExtensionsFor(l.SupportedFormats...)
}
