// Package todos renders the todo panel for the selected session.
package todos

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/tui/theme"
)

const maxVisible = 8

var statusGlyphs = map[string]string{
	"completed":   "x",
	"in_progress": ">",
	"pending":     " ",
	"cancelled":   "-",
}

func priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "high":
		return lipgloss.NewStyle().Foreground(theme.ColorDanger)
	case "medium":
		return lipgloss.NewStyle().Foreground(theme.ColorWarning)
	case "low":
		return theme.StyleDimmed
	default:
		return lipgloss.NewStyle().Foreground(theme.ColorBright)
	}
}

// View renders the panel for the selected row's session. Todo order is
// the host's position order, already applied by the reader.
func View(fact *session.SessionFact, width int) string {
	var b strings.Builder
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat("─", width)))
	b.WriteByte('\n')
	b.WriteString(theme.StyleHeader.Render(" TODOS (selected session)"))
	b.WriteByte('\n')

	if fact == nil || len(fact.Todos) == 0 {
		b.WriteString(theme.StyleDimmed.Render("  (no todos)"))
		b.WriteByte('\n')
		return b.String()
	}

	todos := fact.Todos
	if len(todos) > maxVisible {
		todos = todos[:maxVisible]
	}
	for _, todo := range todos {
		glyph := statusGlyphs[todo.Status]
		if glyph == "" {
			glyph = "?"
		}
		line := fmt.Sprintf(" [%s] %s", glyph, todo.Content)
		if len(line) > width && width > 0 {
			line = line[:width]
		}
		b.WriteString(priorityStyle(todo.Priority).Render(line))
		b.WriteByte('\n')
	}
	if hidden := len(fact.Todos) - maxVisible; hidden > 0 {
		b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("  … %d more", hidden)))
		b.WriteByte('\n')
	}
	return b.String()
}
