package imageprocessor

import (
	"path/filepath"
	"slices"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
	FormatRAW     FormatType = "raw"
	FormatCR2     FormatType = "cr2"
	FormatCR3     FormatType = "cr3"
	FormatNEF     FormatType = "nef"
	FormatARW     FormatType = "arw"
	FormatDNG     FormatType = "dng"
	FormatJP2     FormatType = "jp2"
	FormatPNM     FormatType = "pnm"
	FormatEXR     FormatType = "exr"
	FormatHDR     FormatType = "hdr"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,

	// RAW formats, decoded from their embedded previews
	".cr2": FormatCR2,
	".cr3": FormatCR3,
	".nef": FormatNEF,
	".arw": FormatARW,
	".dng": FormatDNG,
	".raf": FormatRAW,
	".orf": FormatRAW,
	".rw2": FormatRAW,
	".nrw": FormatRAW,
	".srf": FormatRAW,

	// Formats only OpenCV can read
	".jp2": FormatJP2,
	".pbm": FormatPNM,
	".pgm": FormatPNM,
	".ppm": FormatPNM,
	".pnm": FormatPNM,
	".exr": FormatEXR,
	".hdr": FormatHDR,
}

// IsImageFile checks if a file is a known image based on extension
func IsImageFile(path string) bool {
	return GetFileFormat(path) != FormatUnknown
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// IsRawFormat checks if a file is in a camera RAW format
func IsRawFormat(path string) bool {
	switch GetFileFormat(path) {
	case FormatRAW, FormatCR2, FormatCR3, FormatNEF, FormatARW, FormatDNG:
		return true
	default:
		return false
	}
}

// ExtensionsFor returns the sorted extensions that map to any of the given formats
func ExtensionsFor(formats ...FormatType) []string {
	var extensions []string
	for ext, format := range formatExtensions {
		if slices.Contains(formats, format) {
			extensions = append(extensions, ext)
		}
	}
	slices.Sort(extensions)
	return extensions
}

// GetSupportedExtensions returns all known image file extensions, sorted
func GetSupportedExtensions() []string {
	extensions := make([]string, 0, len(formatExtensions))
	for ext := range formatExtensions {
		extensions = append(extensions, ext)
	}
	slices.Sort(extensions)
	return extensions
}
