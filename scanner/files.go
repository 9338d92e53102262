package scanner

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// DefaultExtensions are the file extensions scanned when none are configured
var DefaultExtensions = []string{".jpg", ".jpeg"}

// ListImages returns the regular files directly inside dir whose extension
// matches one of extensions, sorted by name. Hidden files are skipped and
// subdirectories are not descended into.
func ListImages(fsys afero.Fs, dir string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	wanted := NormalizeExtensions(extensions)

	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Mode().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if slices.Contains(wanted, strings.ToLower(filepath.Ext(name))) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

// NormalizeExtensions lowercases extensions and adds the leading dot where missing
func NormalizeExtensions(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(normalized, ext) {
			normalized = append(normalized, ext)
		}
	}
	return normalized
}
