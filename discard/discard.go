// Package discard moves discarded duplicates out of the way.
//
// Files are moved, never deleted, into a folder under the scanned directory.
// Each file is handled on its own: a failure is reported and the remaining
// files are still moved. Moves that already happened are not undone.
package discard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"photodedupe/logging"
	"photodedupe/types"
)

// DefaultFolderName is the folder discards are moved into
const DefaultFolderName = "duplicates"

// ErrNameCollision is returned when the target folder already holds a file with the same name
var ErrNameCollision = errors.New("target already exists")

// CommitError reports a discard that could not be moved
type CommitError struct {
	Path   string
	Target string
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("move %s to %s: %v", e.Path, e.Target, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Move is one completed file move
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CommitReport lists the outcome of every discard handed to Commit
type CommitReport struct {
	Folder string         `json:"folder"`
	Moved  []Move         `json:"moved"`
	Failed []*CommitError `json:"-"`
}

// Mover relocates files on an afero filesystem
type Mover struct {
	fs         afero.Fs
	folderName string
	logger     *slog.Logger
}

// NewMover creates a Mover. An empty folderName selects DefaultFolderName.
func NewMover(fs afero.Fs, folderName string, logger *slog.Logger) *Mover {
	if folderName == "" {
		folderName = DefaultFolderName
	}
	return &Mover{fs: fs, folderName: folderName, logger: logging.OrNop(logger)}
}

// Folder returns the folder discards from dir are moved into
func (m *Mover) Folder(dir string) string {
	return filepath.Join(dir, m.folderName)
}

// Commit moves every record into the discard folder of dir, keeping base names.
// An error is returned only when the folder cannot be created or ctx is
// cancelled; per-file failures are collected in the report.
func (m *Mover) Commit(ctx context.Context, dir string, records []types.ImageRecord) (CommitReport, error) {
	report := CommitReport{Folder: m.Folder(dir)}
	if len(records) == 0 {
		return report, nil
	}

	if err := m.fs.MkdirAll(report.Folder, 0o755); err != nil {
		return report, fmt.Errorf("failed to create %s: %w", report.Folder, err)
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		target := filepath.Join(report.Folder, filepath.Base(record.Path))
		if err := m.move(record.Path, target); err != nil {
			commitErr := &CommitError{Path: record.Path, Target: target, Err: err}
			report.Failed = append(report.Failed, commitErr)
			m.logger.Warn("discard not moved", "path", record.Path, "error", err)
			continue
		}

		report.Moved = append(report.Moved, Move{From: record.Path, To: target})
		m.logger.Debug("discard moved", "path", record.Path, "target", target)
	}

	return report, nil
}

func (m *Mover) move(from, to string) error {
	exists, err := afero.Exists(m.fs, to)
	if err != nil {
		return err
	}
	if exists {
		return ErrNameCollision
	}
	return m.fs.Rename(from, to)
}
