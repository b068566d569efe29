// Package mcp renders the MCP server panel from the host tool's global
// config.
package mcp

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/tui/theme"
)

var enabledStyle = lipgloss.NewStyle().Foreground(theme.ColorHealthy)

// View renders the panel. Servers arrive name-sorted from the reader.
func View(servers []session.MCPServer, width int) string {
	var b strings.Builder
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat("─", width)))
	b.WriteByte('\n')
	b.WriteString(theme.StyleHeader.Render(" MCP SERVERS"))
	b.WriteByte('\n')

	if len(servers) == 0 {
		b.WriteString(theme.StyleDimmed.Render("  (no mcp config found)"))
		b.WriteByte('\n')
		return b.String()
	}

	for _, srv := range servers {
		mark, style := "✓", enabledStyle
		if !srv.Enabled {
			mark, style = "✗", theme.StyleDimmed
		}
		typ := srv.Type
		if typ == "" {
			typ = "?"
		}
		line := fmt.Sprintf("  %s %-20s %s", mark, srv.Name, typ)
		if len(line) > width && width > 0 {
			line = line[:width]
		}
		b.WriteString(style.Render(line))
		b.WriteByte('\n')
	}
	return b.String()
}
