// Package statusbar renders the one-line footer: key hints on the left,
// source health and connection state on the right, with transient flash
// messages overriding the right side. When the filter prompt is active it
// replaces the whole bar.
package statusbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/tui/theme"
)

const flashWindow = 1500 * time.Millisecond

type bind struct{ key, desc string }

var tableBinds = []bind{
	{"q", "quit"},
	{"enter", "view"},
	{"s", "sort"},
	{"d", "flip"},
	{"/", "filter"},
	{"t", "todos"},
	{"m", "mcp"},
	{"e", "log"},
	{"r", "refresh"},
	{"y", "yank"},
	{"?", "help"},
}

// Model holds the footer state. The app mutates the public fields each
// frame; flash state goes through Flash so the timestamp stays consistent.
type Model struct {
	Width      int
	SelectMode bool

	// FilterActive swaps the bar for FilterView, the rendered prompt.
	FilterActive bool
	FilterView   string

	// Attach is set when following a remote serve instance.
	Attach    bool
	Connected bool
	Source    string
	Health    []session.SourceStatus

	flashMsg string
	flashAt  time.Time
}

func New() Model {
	return Model{}
}

// Flash shows msg on the right edge for a short window.
func (m *Model) Flash(msg string) {
	m.flashMsg = msg
	m.flashAt = time.Now()
}

func (m *Model) FlashActive() bool {
	return m.flashMsg != "" && time.Since(m.flashAt) < flashWindow
}

// View renders the bar at the model's width.
func (m Model) View() string {
	if m.FilterActive {
		return theme.StyleHeader.Width(m.Width).Render(" " + m.FilterView)
	}

	var parts []string
	for _, b := range tableBinds {
		parts = append(parts, theme.StyleKey.Render(b.key)+" "+theme.StyleDimmed.Render(b.desc))
	}
	bar := " " + strings.Join(parts, "  ")

	if m.FlashActive() {
		flash := theme.StyleFlash.Render(" " + m.flashMsg + " ")
		if out, ok := rightAlign(bar, flash, m.Width); ok {
			return out
		}
		return bar
	}

	if right := m.rightSegment(); right != "" {
		if out, ok := rightAlign(bar, right, m.Width); ok {
			return out
		}
	}
	return bar
}

// rightSegment builds the health/connection readout for the right edge.
func (m Model) rightSegment() string {
	var segs []string

	if m.SelectMode {
		segs = append(segs, theme.StyleDimmed.Render("select"))
	}

	for _, h := range m.Health {
		color := theme.ColorHealthy
		state := "ok"
		if !h.OK {
			color = theme.ColorDanger
			state = "err"
		}
		segs = append(segs, lipgloss.NewStyle().Foreground(color).Render(
			fmt.Sprintf("%s:%s", h.Source, state)))
	}

	if m.Attach {
		if m.Connected {
			segs = append(segs, lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● attached"))
		} else {
			segs = append(segs, lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ reconnecting"))
		}
	} else if m.Source != "" {
		segs = append(segs, theme.StyleDimmed.Render("src:"+m.Source))
	}

	return strings.Join(segs, theme.StyleDimmed.Render(" | "))
}

func rightAlign(left, right string, width int) (string, bool) {
	lw := lipgloss.Width(left)
	rw := lipgloss.Width(right)
	if lw+rw+1 >= width {
		return "", false
	}
	return left + strings.Repeat(" ", width-lw-rw-1) + right + " ", true
}
