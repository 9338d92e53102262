package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"photodedupe/config"
	"photodedupe/discard"
	"photodedupe/scanner"
	"photodedupe/signalhandler"
	"photodedupe/types"
	"photodedupe/utils"
)

// detectFlags holds the flag targets shared by scan and resolve.
// Values reach the engine through viper, so the fields are only storage.
type detectFlags struct {
	threshold  int
	algorithm  string
	filter     string
	strategy   string
	autoOrient bool
	workers    int
	extensions []string
	cache      bool
	cachePath  string
	folderName string
}

func addDetectFlags(cmd *cobra.Command, f *detectFlags) {
	config.AddIntFlag(cmd, config.Flags, config.FlagThreshold, &f.threshold)
	config.AddStringFlag(cmd, config.Flags, config.FlagAlgorithm, &f.algorithm)
	config.AddStringFlag(cmd, config.Flags, config.FlagFilter, &f.filter)
	config.AddStringFlag(cmd, config.Flags, config.FlagStrategy, &f.strategy)
	config.AddBoolFlag(cmd, config.Flags, config.FlagAutoOrient, &f.autoOrient)
	config.AddIntFlag(cmd, config.Flags, config.FlagWorkers, &f.workers)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagExtensions, &f.extensions)
	config.AddBoolFlag(cmd, config.Flags, config.FlagCache, &f.cache)
	config.AddStringFlag(cmd, config.Flags, config.FlagCachePath, &f.cachePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagFolderName, &f.folderName)
}

var detectKeys = append(slices.Clone(config.DetectFlags), config.FlagFolderName)

const scanLongDesc string = `Scan a folder for near-duplicate photos and report the groups found.

Only files directly inside the folder are considered; subfolders are not
searched. Within each group the smallest file is marked keep and the rest
discard. With --move the discards are moved into the duplicates folder
without asking.

Examples:
  photodedupe scan ~/Pictures/trip
  photodedupe scan ~/Pictures/trip --threshold 4 --format json
  photodedupe scan ~/Pictures/trip --move`

const scanShortDesc string = "Report duplicate groups in a folder"

type scanCommander struct {
	app        *app
	detect     detectFlags
	format     string
	move       bool
	noProgress bool
}

func (a *app) newScanCmd() *cobra.Command {
	cmder := &scanCommander{app: a}

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: scanShortDesc,
		Long:  scanLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	addDetectFlags(cmd, &cmder.detect)
	cmd.Flags().StringVarP(&cmder.format, "format", "f", formatText, "Output format (text, json, markdown)")
	cmd.Flags().BoolVar(&cmder.move, "move", false, "Move discards into the duplicates folder")
	cmd.Flags().BoolVar(&cmder.noProgress, "no-progress", false, "Hide progress bars")

	return cmd
}

func (c *scanCommander) run(cmd *cobra.Command, dir string) error {
	switch c.format {
	case formatText, formatJSON, formatMarkdown:
	default:
		return fmt.Errorf("unknown output format %q", c.format)
	}

	cfg, err := c.app.loadConfig(cmd, detectKeys)
	if err != nil {
		return err
	}
	if dir, err = utils.ResolveDir(dir); err != nil {
		return err
	}

	ctx, stop := signalhandler.Context(cmd.Context())
	defer stop()

	eng, err := newEngine(ctx, cfg, c.app.log())
	if err != nil {
		return err
	}
	defer eng.Close()

	tracker := scanner.NewProgressTracker()
	progress := newProgressConsumer(cmd.ErrOrStderr(), !c.noProgress && c.format != formatJSON)

	report, err := eng.scan(ctx, dir, scanner.Consumers(tracker, progress))
	if err != nil {
		return err
	}

	var commit *discard.CommitReport
	if c.move {
		moved, err := eng.mover.Commit(ctx, dir, report.Result.Discards())
		if err != nil {
			return err
		}
		commit = &moved
	}

	out := cmd.OutOrStdout()
	switch c.format {
	case formatJSON:
		if err := writeJSON(out, report, commit); err != nil {
			return err
		}
	case formatMarkdown:
		rendered, err := renderMarkdown(groupsMarkdown(report.Result.Groups))
		if err != nil {
			c.app.log().Debug("markdown rendering failed", "error", err)
		}
		fmt.Fprint(out, rendered)
	default:
		writeReport(out, cmd.ErrOrStderr(), report, tracker.Stats(), commit)
	}

	return commitErr(commit)
}

func writeReport(out, errOut io.Writer, report scanner.Report, stats scanner.TrackerStats, commit *discard.CommitReport) {
	if errors.Is(report.Err, types.ErrEmptyInput) {
		fmt.Fprintf(errOut, "  %s %s in %s\n", failMark, report.Err, report.Dir)
	}
	writeGroups(out, report.Result.Groups)

	s := newSummary(report, stats)
	s.Commit = commit
	writeSummary(out, s)
}

// commitErr turns per-file move failures into a command error
func commitErr(commit *discard.CommitReport) error {
	if commit == nil || len(commit.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(commit.Failed))
	for _, failed := range commit.Failed {
		errs = append(errs, failed)
	}
	return fmt.Errorf("%d of %d discards could not be moved: %w",
		len(commit.Failed), len(commit.Failed)+len(commit.Moved), errors.Join(errs...))
}
