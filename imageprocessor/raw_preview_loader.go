package imageprocessor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"sync"

	"github.com/barasher/go-exiftool"
	"github.com/disintegration/imaging"
)

// previewTags lists embedded preview fields from largest to smallest
var previewTags = []string{
	"JpgFromRaw",
	"LargestImagePreview",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

// RawPreviewLoader decodes camera RAW files through the largest JPEG preview
// embedded in them. A single exiftool process is started on first use and
// shared by all calls.
type RawPreviewLoader struct {
	BaseImageLoader
	autoOrient bool

	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewRawPreviewLoader creates a new loader for RAW formats
func NewRawPreviewLoader(opts LoaderOptions) *RawPreviewLoader {
	return &RawPreviewLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatRAW,
				FormatCR2,
				FormatCR3,
				FormatNEF,
				FormatARW,
				FormatDNG,
			},
		},
		autoOrient: opts.AutoOrient,
	}
}

// hasExiftool checks if exiftool is available on the system
func hasExiftool() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}

// LoadImage extracts and decodes the first usable preview of the RAW file
func (l *RawPreviewLoader) LoadImage(path string) (image.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.et == nil {
		et, err := exiftool.NewExiftool(exiftool.ExtractAllBinaryMetadata())
		if err != nil {
			return nil, fmt.Errorf("failed to start exiftool: %w", err)
		}
		l.et = et
	}

	infos := l.et.ExtractMetadata(path)
	if len(infos) == 0 {
		return nil, fmt.Errorf("no metadata extracted: %w", ErrNoPreview)
	}
	if infos[0].Err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", infos[0].Err)
	}

	for _, tag := range previewTags {
		value, err := infos[0].GetString(tag)
		if err != nil {
			continue
		}
		img, err := decodePreview(value, l.autoOrient)
		if err == nil {
			return img, nil
		}
	}

	return nil, ErrNoPreview
}

// decodePreview decodes a binary field in exiftool's "base64:" form
func decodePreview(value string, autoOrient bool) (image.Image, error) {
	encoded, ok := strings.CutPrefix(value, "base64:")
	if !ok {
		return nil, fmt.Errorf("field is not binary")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
}

// Close stops the exiftool process if one was started
func (l *RawPreviewLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.et == nil {
		return nil
	}
	err := l.et.Close()
	l.et = nil
	return err
}
