// Package review is the terminal UI for stepping through duplicate groups
// and choosing which members to keep before discards are moved.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"photodedupe/cluster"
	"photodedupe/types"
)

// Outcome is how a review session ended
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeConfirmed
	OutcomeAborted
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	keepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	discardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
)

// Model is the bubbletea model of a review session.
// Groups are edited only through cluster.Toggle and cluster.ApplyOverride.
type Model struct {
	groups  []types.DuplicateGroup
	group   int
	cursor  int
	outcome Outcome
	keys    keyMap
	help    help.Model
}

// New returns a model over a private copy of groups
func New(groups []types.DuplicateGroup) Model {
	return Model{
		groups: append([]types.DuplicateGroup(nil), groups...),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Groups returns the groups with the current keep selections
func (m Model) Groups() []types.DuplicateGroup {
	return append([]types.DuplicateGroup(nil), m.groups...)
}

// Outcome reports whether the session was confirmed or aborted
func (m Model) Outcome() Outcome {
	return m.outcome
}

// Current returns the index of the group on screen and the member under the cursor
func (m Model) Current() (group, member int) {
	return m.group, m.cursor
}

func (m Model) Init() bubbletea.Cmd {
	return nil
}

func (m Model) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Abort):
		m.outcome = OutcomeAborted
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Confirm):
		m.outcome = OutcomeConfirmed
		return m, bubbletea.Quit
	}

	if len(m.groups) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, len(m.groups[m.group].Members)-1)
	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, len(m.groups[m.group].Members)-1)
	case key.Matches(msg, m.keys.Next):
		m.group = clamp(m.group+1, len(m.groups)-1)
		m.cursor = 0
	case key.Matches(msg, m.keys.Prev):
		m.group = clamp(m.group-1, len(m.groups)-1)
		m.cursor = 0
	case key.Matches(msg, m.keys.Toggle):
		if g, err := cluster.Toggle(m.groups[m.group], m.cursor); err == nil {
			m.groups[m.group] = g
		}
	case key.Matches(msg, m.keys.Reset):
		if g, err := cluster.ApplyOverride(m.groups[m.group], []int{0}); err == nil {
			m.groups[m.group] = g
		}
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.groups) == 0 {
		return titleStyle.Render("No duplicates found") + "\n\n" + mutedStyle.Render(m.help.View(m.keys)) + "\n"
	}

	var b strings.Builder
	g := m.groups[m.group]

	b.WriteString(titleStyle.Render(fmt.Sprintf("Group %d of %d", m.group+1, len(m.groups))))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d members, %d to discard", len(g.Members), len(g.Members)-len(g.Keep))))
	b.WriteString("\n\n")

	for i, member := range g.Members {
		b.WriteString(m.memberRow(g, i, member))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.summaryLine()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) memberRow(g types.DuplicateGroup, i int, member types.ImageRecord) string {
	status := discardStyle.Render("discard")
	if g.IsKept(i) {
		status = keepStyle.Render("keep   ")
	}

	name := member.Name()
	if i == m.cursor {
		name = cursorStyle.Render(name)
	}

	return fmt.Sprintf("  %s  %s\n      %s %s  %s %s",
		status, name,
		labelStyle.Render("size"), FormatSize(member),
		labelStyle.Render("dimensions"), member.Dimensions(),
	)
}

func (m Model) summaryLine() string {
	discards := 0
	for _, g := range m.groups {
		discards += len(g.Members) - len(g.Keep)
	}
	return fmt.Sprintf("%d groups, %d files to move", len(m.groups), discards)
}

// FormatSize renders a record size in megabytes with two decimals
func FormatSize(r types.ImageRecord) string {
	return fmt.Sprintf("%.2f MB", r.SizeMB())
}

// ErrAborted is returned by Run when the user leaves without confirming
var ErrAborted = errors.New("review aborted")

// Run shows the review UI and returns the confirmed groups.
// Leaving without confirming returns ErrAborted.
func Run(ctx context.Context, groups []types.DuplicateGroup, opts ...bubbletea.ProgramOption) ([]types.DuplicateGroup, error) {
	opts = append([]bubbletea.ProgramOption{bubbletea.WithContext(ctx), bubbletea.WithAltScreen()}, opts...)
	program := bubbletea.NewProgram(New(groups), opts...)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("running review: %w", err)
	}

	model, ok := final.(Model)
	if !ok || model.Outcome() != OutcomeConfirmed {
		return nil, ErrAborted
	}
	return model.Groups(), nil
}

func clamp(v, upper int) int {
	return max(0, min(v, upper))
}
