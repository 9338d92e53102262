// Package database keeps computed fingerprints in a sqlite cache so unchanged
// files are not decoded again on the next run.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"

	"photodedupe/imageprocessor"
	"photodedupe/logging"
	"photodedupe/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS fingerprints (
	path TEXT NOT NULL,
	algorithm TEXT NOT NULL,
	size INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	PRIMARY KEY (path, algorithm)
);
CREATE INDEX IF NOT EXISTS idx_fingerprint ON fingerprints(fingerprint);`

// columns added after the first schema, in order
var migrations = []struct {
	column string
	decl   string
}{
	{"width", "INTEGER NOT NULL DEFAULT 0"},
	{"height", "INTEGER NOT NULL DEFAULT 0"},
	{"updated_at", "TEXT"},
}

// FingerprintCache is a sqlite implementation of imageprocessor.Cache
type FingerprintCache struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *slog.Logger
}

var _ imageprocessor.Cache = (*FingerprintCache)(nil)

// InitDatabase opens (creating when needed) the cache at dbPath and brings the schema up to date.
// Use ":memory:" for a throwaway cache.
func InitDatabase(dbPath string, logger *slog.Logger) (*FingerprintCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", dbPath, err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	cache := &FingerprintCache{db: db, logger: logging.OrNop(logger)}
	if err := cache.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func (c *FingerprintCache) migrate() error {
	if _, err := c.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	for _, m := range migrations {
		var present bool
		err := c.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('fingerprints') WHERE name = ?", m.column).Scan(&present)
		if err != nil {
			return fmt.Errorf("error checking for %s column: %w", m.column, err)
		}
		if present {
			continue
		}
		if _, err := c.db.Exec(fmt.Sprintf("ALTER TABLE fingerprints ADD COLUMN %s %s", m.column, m.decl)); err != nil {
			return fmt.Errorf("error adding %s column: %w", m.column, err)
		}
		c.logger.Debug("added cache column", "column", m.column)
	}
	return nil
}

// Close closes the underlying database
func (c *FingerprintCache) Close() error {
	return c.db.Close()
}

// Lookup returns the fingerprint stored for key if size and mod time still match
func (c *FingerprintCache) Lookup(ctx context.Context, key imageprocessor.CacheKey) (imageprocessor.CacheEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var hex string
	var entry imageprocessor.CacheEntry
	err := c.db.QueryRowContext(ctx,
		"SELECT fingerprint, width, height FROM fingerprints WHERE path = ? AND algorithm = ? AND size = ? AND mod_time = ?",
		key.Path, key.Algorithm, key.Size, key.ModTime.UnixNano(),
	).Scan(&hex, &entry.Width, &entry.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return imageprocessor.CacheEntry{}, false, nil
	}
	if err != nil {
		return imageprocessor.CacheEntry{}, false, fmt.Errorf("cache lookup for %s: %w", key.Path, err)
	}

	entry.Fingerprint, err = types.ParseFingerprint(hex)
	if err != nil {
		return imageprocessor.CacheEntry{}, false, fmt.Errorf("cache entry for %s: %w", key.Path, err)
	}
	return entry, true, nil
}

// Store inserts or replaces the entry for key
func (c *FingerprintCache) Store(ctx context.Context, key imageprocessor.CacheKey, entry imageprocessor.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fingerprints (
			path, algorithm, size, mod_time, fingerprint, width, height, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Path,
		key.Algorithm,
		key.Size,
		key.ModTime.UnixNano(),
		entry.Fingerprint.String(),
		entry.Width,
		entry.Height,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot store fingerprint for %s: %w", key.Path, err)
	}
	return nil
}

// Prune deletes entries whose file is gone or has changed since it was cached.
// It returns the number of deleted entries.
func (c *FingerprintCache) Prune(ctx context.Context, fsys afero.Fs) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx, "SELECT path, algorithm, size, mod_time FROM fingerprints")
	if err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}

	type stale struct{ path, algorithm string }
	var toDelete []stale
	for rows.Next() {
		var path, algorithm string
		var size, modTime int64
		if err := rows.Scan(&path, &algorithm, &size, &modTime); err != nil {
			rows.Close()
			return 0, err
		}

		info, err := fsys.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			toDelete = append(toDelete, stale{path, algorithm})
		case err != nil:
			c.logger.Warn("cannot stat cached file", "path", path, "error", err)
		case info.Size() != size || info.ModTime().UnixNano() != modTime:
			toDelete = append(toDelete, stale{path, algorithm})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if len(toDelete) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM fingerprints WHERE path = ? AND algorithm = ?")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, s := range toDelete {
		if _, err := stmt.ExecContext(ctx, s.path, s.algorithm); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(toDelete), nil
}

// Clear removes every entry and returns how many were deleted
func (c *FingerprintCache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM fingerprints")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CacheStats summarizes the cache contents
type CacheStats struct {
	Entries      int
	UniqueHashes int
	ByAlgorithm  map[string]int
}

// GetStats retrieves statistics about cached fingerprints
func (c *FingerprintCache) GetStats(ctx context.Context) (*CacheStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &CacheStats{ByAlgorithm: make(map[string]int)}

	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*), COUNT(DISTINCT fingerprint) FROM fingerprints").
		Scan(&stats.Entries, &stats.UniqueHashes)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, "SELECT algorithm, COUNT(*) FROM fingerprints GROUP BY algorithm")
	if err != nil {
		return nil, fmt.Errorf("failed to count algorithms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var algorithm string
		var n int
		if err := rows.Scan(&algorithm, &n); err != nil {
			return nil, err
		}
		stats.ByAlgorithm[algorithm] = n
	}
	return stats, rows.Err()
}
