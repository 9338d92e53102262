package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"photodedupe/discard"
	"photodedupe/review"
	"photodedupe/scanner"
	"photodedupe/types"
)

// Output formats accepted by --format
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

var (
	successMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	failMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	keepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	discardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// progressConsumer draws one progress bar per pipeline stage
type progressConsumer struct {
	scanner.NopConsumer

	w       io.Writer
	visible bool
	stage   types.Stage
	bar     *progressbar.ProgressBar
}

func newProgressConsumer(w io.Writer, visible bool) *progressConsumer {
	return &progressConsumer{w: w, visible: visible}
}

func (p *progressConsumer) OnProgress(progress types.Progress) {
	if p.bar == nil || p.stage != progress.Stage {
		p.finish()
		p.stage = progress.Stage
		p.bar = progressbar.NewOptions(progress.Total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(stageDescription(progress.Stage)),
			progressbar.OptionSetVisibility(p.visible),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(65*time.Millisecond),
		)
	}

	done := progress.Processed
	if progress.Stage == types.StageCluster {
		done = progress.Total - progress.Remaining
	}
	_ = p.bar.Set(done)
}

func (p *progressConsumer) OnComplete(scanner.Report) {
	p.finish()
}

func (p *progressConsumer) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func stageDescription(stage types.Stage) string {
	switch stage {
	case types.StageCluster:
		return "Grouping duplicates"
	default:
		return "Hashing images"
	}
}

// summary is the closing tally of a scan or resolve run
type summary struct {
	Found    int
	Groups   int
	Discards int
	Skipped  int
	Raw      int
	Elapsed  time.Duration
	Commit   *discard.CommitReport
}

func newSummary(report scanner.Report, stats scanner.TrackerStats) summary {
	return summary{
		Found:    report.Total,
		Groups:   stats.Groups,
		Discards: stats.Discards,
		Skipped:  stats.Errors,
		Raw:      stats.RawProcessed - stats.RawErrors,
		Elapsed:  report.Elapsed,
	}
}

func writeSummary(w io.Writer, s summary) {
	fmt.Fprintf(w, "  %s %d images found %s\n", successMark, s.Found, stepStyle.Render(fmt.Sprintf("(%s)", formatDuration(s.Elapsed))))
	if s.Raw > 0 {
		fmt.Fprintf(w, "  %s %d RAW files read from embedded previews\n", successMark, s.Raw)
	}
	fmt.Fprintf(w, "  %s %d groups with duplicates, %d files to discard\n", successMark, s.Groups, s.Discards)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "  %s %d images could not be read\n", failMark, s.Skipped)
	}
	if s.Commit == nil {
		return
	}
	fmt.Fprintf(w, "  %s %d files moved to %s\n", successMark, len(s.Commit.Moved), s.Commit.Folder)
	for _, failed := range s.Commit.Failed {
		fmt.Fprintf(w, "  %s %s\n", failMark, failed.Error())
	}
}

// writeGroups lists every group with its keep/discard marks
func writeGroups(w io.Writer, groups []types.DuplicateGroup) {
	for i, g := range groups {
		fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Group %d", i+1)))
		for j, m := range g.Members {
			status := discardStyle.Render("discard")
			if g.IsKept(j) {
				status = keepStyle.Render("keep   ")
			}
			fmt.Fprintf(w, "  %s  %-32s %10s  %s\n", status, m.Name(), review.FormatSize(m), m.Dimensions())
		}
		fmt.Fprintln(w)
	}
}

// groupsMarkdown renders groups as one markdown table per group
func groupsMarkdown(groups []types.DuplicateGroup) string {
	var b strings.Builder
	b.WriteString("# Duplicate groups\n\n")
	if len(groups) == 0 {
		b.WriteString("No duplicates found.\n")
		return b.String()
	}

	for i, g := range groups {
		fmt.Fprintf(&b, "## Group %d\n\n", i+1)
		b.WriteString("| | Name | Size | Dimensions |\n|---|---|---|---|\n")
		for j, m := range g.Members {
			status := "discard"
			if g.IsKept(j) {
				status = "**keep**"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", status, m.Name(), review.FormatSize(m), m.Dimensions())
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMarkdown renders markdown content for terminal display using glamour.
func renderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}

type skippedJSON struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type reportJSON struct {
	scanner.Report

	Skipped []skippedJSON         `json:"skipped"`
	Commit  *discard.CommitReport `json:"commit,omitempty"`
	Warning string                `json:"warning,omitempty"`
}

func writeJSON(w io.Writer, report scanner.Report, commit *discard.CommitReport) error {
	out := reportJSON{Report: report, Skipped: []skippedJSON{}, Commit: commit}
	for _, f := range report.Failures {
		out.Skipped = append(out.Skipped, skippedJSON{Path: f.Path, Error: f.Err.Error()})
	}
	if out.Result.Groups == nil {
		out.Result.Groups = []types.DuplicateGroup{}
	}
	if report.Err != nil {
		out.Warning = report.Err.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// formatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
