package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"photodedupe/cluster"
	"photodedupe/config"
	"photodedupe/database"
	"photodedupe/discard"
	"photodedupe/imageprocessor"
	"photodedupe/scanner"
	"photodedupe/signalhandler"
	"photodedupe/utils"
)

const cacheOpenRetries = 3

// cacheRetryDelay is the backoff unit between attempts to open the cache
var cacheRetryDelay = time.Second

// engine is the scanner and mover built from one configuration
type engine struct {
	cfg      *config.Config
	fs       afero.Fs
	registry *imageprocessor.ImageLoaderRegistry
	cache    *database.FingerprintCache
	scanner  *scanner.Scanner
	mover    *discard.Mover
}

func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine, error) {
	e := &engine{cfg: cfg, fs: afero.NewOsFs()}

	e.registry = imageprocessor.NewImageLoaderRegistry(imageprocessor.LoaderOptions{
		AutoOrient: cfg.Detect.AutoOrient,
	}, logger)

	extractorCfg := imageprocessor.ExtractorConfig{
		Algorithm: cfg.Detect.Algorithm,
		Filter:    cfg.Detect.Filter,
		Workers:   signalhandler.ResolveWorkers(cfg.Detect.Workers),
		Logger:    logger,
	}

	if cfg.Cache.Enabled {
		cache, err := openCache(ctx, cachePath(cfg), logger)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.cache = cache
		extractorCfg.Cache = cache
	}

	extractor, err := imageprocessor.NewExtractor(e.registry, extractorCfg)
	if err != nil {
		e.Close()
		return nil, err
	}

	clusterer, err := cluster.New(cfg.Detect.Threshold)
	if err != nil {
		e.Close()
		return nil, err
	}
	if clusterer.Strategy, err = cluster.ParseStrategy(cfg.Detect.Strategy); err != nil {
		e.Close()
		return nil, err
	}

	e.scanner = scanner.New(e.fs, extractor, clusterer, logger)
	e.mover = discard.NewMover(e.fs, cfg.Commit.FolderName, logger)
	return e, nil
}

func (e *engine) scan(ctx context.Context, dir string, consumer scanner.Consumer) (scanner.Report, error) {
	return e.scanner.Run(ctx, scanner.ScanOptions{
		Dir:        dir,
		Extensions: e.cfg.Detect.Extensions,
	}, consumer)
}

// Close releases the loaders and the cache
func (e *engine) Close() error {
	var errs []error
	if e.registry != nil {
		errs = append(errs, e.registry.Close())
	}
	if e.cache != nil {
		errs = append(errs, e.cache.Close())
	}
	return errors.Join(errs...)
}

func cachePath(cfg *config.Config) string {
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path
	}
	return utils.GetDefaultCachePath()
}

// openCache opens the sqlite cache, retrying while another process holds it
func openCache(ctx context.Context, path string, logger *slog.Logger) (*database.FingerprintCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	var lastErr error
	for i := range cacheOpenRetries {
		cache, err := database.InitDatabase(path, logger)
		if err == nil {
			return cache, nil
		}
		lastErr = err

		if i < cacheOpenRetries-1 {
			logger.Warn("error opening cache, retrying", "attempt", i+1, "of", cacheOpenRetries, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cacheRetryDelay * time.Duration(i+1)):
			}
		}
	}
	return nil, fmt.Errorf("opening cache after %d attempts: %w", cacheOpenRetries, lastErr)
}
