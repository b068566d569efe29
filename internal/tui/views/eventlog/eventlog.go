// Package eventlog provides a scrollable diagnostics overlay. The poll
// loop, websocket client, and key handlers all feed it; nothing here is
// persisted.
package eventlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-htop/octop/internal/tui/theme"
)

const maxEntries = 200

// Entry is a single event line.
type Entry struct {
	Time    time.Time
	Kind    string // "poll", "ws", "nav", "err", "hlth"
	Message string
}

// Model holds the ring of recent entries and the scroll offset,
// measured in lines from the bottom.
type Model struct {
	Entries []Entry
	Offset  int
}

func New() Model {
	return Model{}
}

// Add appends an entry, caps the buffer, and snaps the view back to the
// newest line.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{Time: time.Now(), Kind: kind, Message: message})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// Addf is Add with formatting.
func (m *Model) Addf(kind, format string, args ...any) {
	m.Add(kind, fmt.Sprintf(format, args...))
}

func (m *Model) ScrollUp(n int) {
	m.Offset += n
	if max := len(m.Entries) - 1; m.Offset > max {
		m.Offset = max
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func (m *Model) ScrollDown(n int) {
	m.Offset -= n
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the overlay panel sized to the terminal.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visible := height - 8
	if visible < 3 {
		visible = 3
	}

	title := theme.StyleHeader.Render(" EVENT LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d entries", len(m.Entries)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  no events yet")
		return panelStyle(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
	}

	end := len(m.Entries) - m.Offset
	if end < 0 {
		end = 0
	}
	start := end - visible
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := m.Entries[i]
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
		kind := lipgloss.NewStyle().Foreground(kindColor(e.Kind)).Width(5).Render(e.Kind)
		msg := e.Message
		if len(msg) > innerW-18 && innerW > 21 {
			msg = msg[:innerW-21] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, kind, msg))
	}

	body := strings.Join(lines, "\n")
	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	return panelStyle(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, body, more, help))
}

func kindColor(kind string) lipgloss.Color {
	switch kind {
	case "poll":
		return theme.ColorGenerating
	case "ws":
		return theme.ColorThinking
	case "err":
		return theme.ColorDanger
	case "nav":
		return theme.ColorQueued
	case "hlth":
		return theme.ColorWarning
	default:
		return theme.ColorDimmed
	}
}
