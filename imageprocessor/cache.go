package imageprocessor

import (
	"context"
	"time"

	"photodedupe/types"
)

// CacheKey identifies a fingerprint computed for one version of a file.
// Algorithm includes the resample filter so differently computed
// fingerprints never mix.
type CacheKey struct {
	Path      string
	Size      int64
	ModTime   time.Time
	Algorithm string
}

// CacheEntry is the cached part of an image record
type CacheEntry struct {
	Fingerprint types.Fingerprint
	Width       int
	Height      int
}

// Cache stores fingerprints across runs
type Cache interface {
	// Lookup returns the entry for key when the file is unchanged since it was stored.
	Lookup(ctx context.Context, key CacheKey) (CacheEntry, bool, error)

	// Store saves or replaces the entry for key.
	Store(ctx context.Context, key CacheKey, entry CacheEntry) error
}
