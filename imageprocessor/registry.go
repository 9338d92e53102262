package imageprocessor

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"photodedupe/logging"
)

// extraLoaders registers loaders that need optional build tags
var extraLoaders []func(*ImageLoaderRegistry, LoaderOptions)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders map[string]ImageLoader
	mutex   sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with every loader available on this system
func NewImageLoaderRegistry(opts LoaderOptions, logger *slog.Logger) *ImageLoaderRegistry {
	logger = logging.OrNop(logger)
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standard := NewStandardImageLoader(opts)
	for _, ext := range standard.Extensions() {
		registry.RegisterLoader(ext, standard)
	}

	// RAW previews need the exiftool binary
	if hasExiftool() {
		raw := NewRawPreviewLoader(opts)
		for _, ext := range raw.Extensions() {
			registry.RegisterLoader(ext, raw)
		}
		logger.Debug("registered RAW preview loader")
	} else {
		logger.Debug("exiftool not found, RAW formats disabled")
	}

	for _, register := range extraLoaders {
		register(registry, opts)
	}

	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader registered for the path's extension
func (r *ImageLoaderRegistry) GetLoader(path string) (ImageLoader, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	if !ok || !loader.CanLoad(path) {
		return nil, false
	}
	return loader, true
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	_, ok := r.GetLoader(path)
	return ok
}

// Extensions returns the registered extensions, sorted
func (r *ImageLoaderRegistry) Extensions() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	extensions := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		extensions = append(extensions, ext)
	}
	slices.Sort(extensions)
	return extensions
}

// LoadImage decodes path with the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	loader, ok := r.GetLoader(path)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return loader.LoadImage(path)
}

// Close releases resources held by loaders, such as the exiftool process
func (r *ImageLoaderRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var errs []error
	seen := make(map[ImageLoader]bool)
	for _, loader := range r.loaders {
		if seen[loader] {
			continue
		}
		seen[loader] = true
		if c, ok := loader.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
