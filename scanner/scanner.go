// Package scanner runs the whole detection pipeline over one directory:
// list files, fingerprint them, then group the records.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"photodedupe/cluster"
	"photodedupe/imageprocessor"
	"photodedupe/logging"
	"photodedupe/types"
)

// Scanner wires file listing, extraction and clustering together
type Scanner struct {
	fs        afero.Fs
	extractor *imageprocessor.Extractor
	clusterer *cluster.Clusterer
	logger    *slog.Logger
}

// New creates a Scanner. Files are listed through fs; the extractor's loaders
// read them from the operating system.
func New(fs afero.Fs, extractor *imageprocessor.Extractor, clusterer *cluster.Clusterer, logger *slog.Logger) *Scanner {
	return &Scanner{
		fs:        fs,
		extractor: extractor,
		clusterer: clusterer,
		logger:    logging.OrNop(logger),
	}
}

// Run scans opts.Dir and streams every event to consumer.
// A listing failure is returned as an error. A cancelled run returns the
// partial report together with the context error. A run without usable
// images completes with an empty result and Report.Err set to
// types.ErrEmptyInput.
func (s *Scanner) Run(ctx context.Context, opts ScanOptions, consumer Consumer) (Report, error) {
	if consumer == nil {
		consumer = NopConsumer{}
	}

	start := time.Now()
	report := Report{RunID: uuid.NewString(), Dir: opts.Dir}
	logger := s.logger.With(logging.RunIDKey, report.RunID)

	paths, err := ListImages(s.fs, opts.Dir, opts.Extensions)
	if err != nil {
		return report, err
	}
	report.Total = len(paths)
	logger.Info("scan started", "dir", opts.Dir, "files", report.Total)

	finish := func(err error) (Report, error) {
		report.Err = err
		report.Elapsed = time.Since(start)
		consumer.OnComplete(report)
		return report, ctxErr(err)
	}

	processed := 0
	for record, err := range s.extractor.Records(ctx, paths) {
		var decodeErr *imageprocessor.DecodeError
		switch {
		case errors.As(err, &decodeErr):
			report.Failures = append(report.Failures, decodeErr)
			logging.LogImageFailed(logger, decodeErr.Path, decodeErr.Err)
			consumer.OnDecodeError(decodeErr)
		case err != nil:
			logger.Warn("scan cancelled", "processed", processed, "error", err)
			return finish(err)
		default:
			report.Records = append(report.Records, record)
			consumer.OnRecord(record)
		}

		processed++
		consumer.OnProgress(types.Progress{
			Stage:     types.StageExtract,
			Processed: processed,
			Remaining: report.Total - processed,
			Total:     report.Total,
		})
	}

	if len(report.Records) == 0 {
		logger.Warn("nothing to compare", "error", types.ErrEmptyInput, "skipped", len(report.Failures))
		return finish(types.ErrEmptyInput)
	}

	result, err := s.clusterer.Run(ctx, report.Records, consumer)
	report.Result = result
	if err != nil {
		logger.Warn("scan cancelled", "groups", len(result.Groups), "error", err)
		return finish(err)
	}

	logger.Info("scan finished",
		"records", len(report.Records),
		"skipped", len(report.Failures),
		"groups", len(result.Groups),
		"singletons", result.Singletons,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return finish(nil)
}

// ctxErr keeps context errors and drops the empty-input warning
func ctxErr(err error) error {
	if errors.Is(err, types.ErrEmptyInput) {
		return nil
	}
	return err
}
