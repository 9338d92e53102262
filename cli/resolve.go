package cli

import (
	"errors"
	"fmt"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"photodedupe/review"
	"photodedupe/scanner"
	"photodedupe/signalhandler"
	"photodedupe/types"
	"photodedupe/utils"
)

// runReview shows the interactive review; replaced in tests
var runReview = review.Run

const resolveLongDesc string = `Scan a folder, review each duplicate group and move the discards.

The review starts with the smallest file of every group marked keep. Any
member can be flipped between keep and discard, including keeping several
or none. Confirming moves every discard into the duplicates folder of the
scanned directory; aborting leaves all files in place.

Examples:
  photodedupe resolve ~/Pictures/trip
  photodedupe resolve ~/Pictures/trip --folder-name rejects`

const resolveShortDesc string = "Review duplicate groups and move discards"

type resolveCommander struct {
	app        *app
	detect     detectFlags
	noProgress bool
}

func (a *app) newResolveCmd() *cobra.Command {
	cmder := &resolveCommander{app: a}

	cmd := &cobra.Command{
		Use:   "resolve <dir>",
		Short: resolveShortDesc,
		Long:  resolveLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	addDetectFlags(cmd, &cmder.detect)
	cmd.Flags().BoolVar(&cmder.noProgress, "no-progress", false, "Hide progress bars")

	return cmd
}

func (c *resolveCommander) run(cmd *cobra.Command, dir string) error {
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
	report, err := eng.scan(ctx, dir, scanner.Consumers(tracker, newProgressConsumer(cmd.ErrOrStderr(), !c.noProgress)))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := newSummary(report, tracker.Stats())
	if len(report.Result.Groups) == 0 {
		writeReport(out, cmd.ErrOrStderr(), report, tracker.Stats(), nil)
		return nil
	}

	groups, err := runReview(ctx, report.Result.Groups,
		bubbletea.WithInput(cmd.InOrStdin()),
		bubbletea.WithOutput(cmd.OutOrStdout()),
	)
	if errors.Is(err, review.ErrAborted) {
		fmt.Fprintf(out, "  %s review aborted, no files moved\n", failMark)
		return nil
	}
	if err != nil {
		return err
	}

	discards := types.RunResult{Groups: groups}.Discards()
	commit, err := eng.mover.Commit(ctx, dir, discards)
	if err != nil {
		return err
	}

	s.Discards = len(discards)
	s.Commit = &commit
	writeSummary(out, s)
	return commitErr(&commit)
}
