package imageprocessor

import (
	"context"
	"fmt"
	"image"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"photodedupe/logging"
	"photodedupe/types"
)

// ExtractorConfig configures an Extractor
type ExtractorConfig struct {
	Algorithm string
	Filter    string

	// Workers bounds concurrent decoding; values below 2 decode sequentially.
	Workers int

	// Cache is optional.
	Cache  Cache
	Logger *slog.Logger
}

// Extractor turns image files into fingerprinted records
type Extractor struct {
	registry   *ImageLoaderRegistry
	algorithm  Algorithm
	filterName string
	filter     imaging.ResampleFilter
	workers    int
	cache      Cache
	logger     *slog.Logger
}

// NewExtractor validates cfg and creates an Extractor using registry for decoding
func NewExtractor(registry *ImageLoaderRegistry, cfg ExtractorConfig) (*Extractor, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = string(AlgorithmDHash)
	}
	if cfg.Filter == "" {
		cfg.Filter = DefaultFilter
	}

	algorithm, err := ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	filter, err := ParseFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		registry:   registry,
		algorithm:  algorithm,
		filterName: strings.ToLower(cfg.Filter),
		filter:     filter,
		workers:    max(cfg.Workers, 1),
		cache:      cfg.Cache,
		logger:     logging.OrNop(cfg.Logger),
	}, nil
}

// CacheAlgorithm returns the identifier under which fingerprints are cached
func (e *Extractor) CacheAlgorithm() string {
	if e.algorithm == AlgorithmDHashRow {
		return string(e.algorithm)
	}
	return fmt.Sprintf("%s/%s", e.algorithm, e.filterName)
}

// Extract fingerprints a single file. Failures are returned as *DecodeError.
func (e *Extractor) Extract(ctx context.Context, path string) (types.ImageRecord, error) {
	return e.extract(ctx, 0, path)
}

// Records returns a lazy, single-use sequence over paths in input order.
// Each element is a record or a *DecodeError for that path. If ctx is
// cancelled the sequence yields the context error once and ends.
func (e *Extractor) Records(ctx context.Context, paths []string) iter.Seq2[types.ImageRecord, error] {
	if e.workers > 1 && len(paths) > 1 {
		return e.parallelRecords(ctx, paths)
	}
	return func(yield func(types.ImageRecord, error) bool) {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				yield(types.ImageRecord{}, err)
				return
			}
			if !yield(e.extract(ctx, i, path)) {
				return
			}
		}
	}
}

type extraction struct {
	record types.ImageRecord
	err    error
}

// parallelRecords decodes ahead with a bounded pool while delivering in input order
func (e *Extractor) parallelRecords(ctx context.Context, paths []string) iter.Seq2[types.ImageRecord, error] {
	return func(yield func(types.ImageRecord, error) bool) {
		ctx, cancel := context.WithCancel(ctx)

		slots := make([]chan extraction, len(paths))
		for i := range slots {
			slots[i] = make(chan extraction, 1)
		}

		var g errgroup.Group
		g.SetLimit(e.workers)
		dispatched := make(chan struct{})
		go func() {
			defer close(dispatched)
			for i, path := range paths {
				if ctx.Err() != nil {
					return
				}
				g.Go(func() error {
					record, err := e.extract(ctx, i, path)
					slots[i] <- extraction{record: record, err: err}
					return nil
				})
			}
		}()

		defer func() {
			cancel()
			<-dispatched
			_ = g.Wait()
		}()

		for i := range paths {
			if err := ctx.Err(); err != nil {
				yield(types.ImageRecord{}, err)
				return
			}
			select {
			case <-ctx.Done():
				yield(types.ImageRecord{}, ctx.Err())
				return
			case res := <-slots[i]:
				if !yield(res.record, res.err) {
					return
				}
			}
		}
	}
}

func (e *Extractor) extract(ctx context.Context, index int, path string) (types.ImageRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.ImageRecord{}, &DecodeError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return types.ImageRecord{}, &DecodeError{Path: path, Err: ErrNotRegular}
	}
	if info.Size() == 0 {
		return types.ImageRecord{}, &DecodeError{Path: path, Err: ErrEmptyFile}
	}

	record := types.ImageRecord{
		Path:  path,
		Size:  info.Size(),
		Index: index,
	}
	key := CacheKey{
		Path:      path,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Algorithm: e.CacheAlgorithm(),
	}

	if e.cache != nil {
		entry, ok, err := e.cache.Lookup(ctx, key)
		if err != nil {
			e.logger.Warn("fingerprint cache lookup failed", "path", path, "error", err)
		} else if ok {
			record.Fingerprint = entry.Fingerprint
			record.Width, record.Height = entry.Width, entry.Height
			logging.LogImageProcessed(e.logger, record, true)
			return record, nil
		}
	}

	img, err := e.load(path)
	if err != nil {
		return types.ImageRecord{}, &DecodeError{Path: path, Err: err}
	}

	fp, err := e.fingerprint(img)
	if err != nil {
		return types.ImageRecord{}, &DecodeError{Path: path, Err: err}
	}
	bounds := img.Bounds()
	record.Fingerprint = fp
	record.Width, record.Height = bounds.Dx(), bounds.Dy()

	if e.cache != nil {
		entry := CacheEntry{Fingerprint: fp, Width: record.Width, Height: record.Height}
		if err := e.cache.Store(ctx, key, entry); err != nil {
			e.logger.Warn("fingerprint cache store failed", "path", path, "error", err)
		}
	}

	logging.LogImageProcessed(e.logger, record, false)
	return record, nil
}

// load decodes path, turning a panicking decoder into an error
func (e *Extractor) load(path string) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during image loading: %v", r)
		}
	}()
	return e.registry.LoadImage(path)
}

func (e *Extractor) fingerprint(img image.Image) (types.Fingerprint, error) {
	if e.algorithm == AlgorithmDHashRow {
		return ComputeRowHash(img)
	}
	return ComputeDifferenceHash(img, e.filter)
}
