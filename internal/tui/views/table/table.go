// Package table renders the main session grid: aggregate stats bar,
// sortable column headers, and two display lines per process.
package table

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/tui/theme"
)

// Grid column widths (content, not including gap). The title/last column
// flexes to fill the rest of the terminal.
const (
	colStatus = 10 // "generating" is the longest status
	colSID    = 30 // session ids are fixed-length
	colUp     = 8
	colCPU    = 7 // also the MEM column ("1023MiB")
	colTok    = 8
	colModel  = 12
	colGap    = 2

	linesPerRow = 3 // two content lines + separator
)

// Model holds everything the grid needs to render one frame. The app
// owns filtering and sorting; Rows arrive ready for display.
type Model struct {
	Width  int
	Height int

	Cursor     int
	Offset     int
	SelectMode bool

	Rows        []session.Row
	Today       session.Aggregate
	Global      session.Aggregate
	SortKey     session.SortKey
	Descending  bool
	Filter      string
	ActiveCount int
	ToolCount   int
	Now         time.Time
}

func New() Model {
	return Model{Now: time.Now()}
}

// SetRows replaces the visible rows and clamps cursor and scroll.
func (m *Model) SetRows(rows []session.Row) {
	m.Rows = rows
	if max := len(rows) - 1; m.Cursor > max {
		m.Cursor = max
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.adjustScroll()
}

// Move shifts the cursor by delta, clamped to the row range.
func (m *Model) Move(delta int) {
	m.SelectMode = true
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if max := len(m.Rows) - 1; m.Cursor > max && max >= 0 {
		m.Cursor = max
	}
	m.adjustScroll()
}

// Home moves the cursor to the first row.
func (m *Model) Home() {
	m.SelectMode = true
	m.Cursor = 0
	m.adjustScroll()
}

// End moves the cursor to the last row.
func (m *Model) End() {
	m.SelectMode = true
	if len(m.Rows) > 0 {
		m.Cursor = len(m.Rows) - 1
	}
	m.adjustScroll()
}

// Selected returns the row under the cursor, or false when the grid is
// empty.
func (m Model) Selected() (session.Row, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return session.Row{}, false
	}
	return m.Rows[m.Cursor], true
}

func (m Model) pageSize() int {
	overhead := 5 // breadcrumb + stats + two header rows + separator
	page := (m.Height - overhead - 1) / linesPerRow
	if page < 1 {
		page = 1
	}
	return page
}

func (m *Model) adjustScroll() {
	page := m.pageSize()
	if m.Cursor >= m.Offset+page {
		m.Offset = m.Cursor - page + 1
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

// View renders the grid without the bottom status bar (the app appends
// that separately).
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderBreadcrumb())
	b.WriteByte('\n')
	b.WriteString(m.renderStatsBar())
	b.WriteByte('\n')
	b.WriteString(m.renderColumnHeaders())
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat("─", m.width())))
	b.WriteByte('\n')

	if len(m.Rows) == 0 {
		b.WriteString(theme.StyleDimmed.Render("  no opencode processes"))
		b.WriteByte('\n')
		return b.String()
	}

	end := m.Offset + m.pageSize()
	if end > len(m.Rows) {
		end = len(m.Rows)
	}
	for i := m.Offset; i < end; i++ {
		selected := m.SelectMode && i == m.Cursor
		b.WriteString(m.renderRowLine1(m.Rows[i], selected))
		b.WriteByte('\n')
		b.WriteString(m.renderRowLine2(m.Rows[i], selected))
		b.WriteString("\n\n")
	}

	return b.String()
}

func (m Model) width() int {
	if m.Width < 40 {
		return 40
	}
	return m.Width
}

// titleWidth computes the flexible TITLE/LAST column width.
func (m Model) titleWidth() int {
	fixed := colGap + colStatus + colGap + colSID + colGap + colUp +
		colGap + colCPU + colGap + colTok + colGap + colModel
	tw := m.width() - fixed - colGap
	if tw < 10 {
		tw = 10
	}
	return tw
}

func (m Model) renderBreadcrumb() string {
	crumb := " opencode > sessions"
	if m.Filter != "" {
		crumb += " > /" + m.Filter
	}
	right := m.Now.Format("15:04:05") + " "
	pad := m.width() - len(crumb) - len(right)
	if pad < 0 {
		pad = 0
	}
	line := truncOrPad(crumb+strings.Repeat(" ", pad)+right, m.width())
	return theme.StyleHeader.Render(line)
}

func (m Model) renderStatsBar() string {
	running := fmt.Sprintf("%d active", m.ActiveCount)
	if m.ToolCount > 0 {
		running += fmt.Sprintf(" (+%d bg)", m.ToolCount)
	}

	dir := "asc"
	if m.Descending {
		dir = "desc"
	}

	stats := fmt.Sprintf(" %s  %d/%d sessions  %d msgs  ctx:%s out:%s  sort:%s %s",
		running,
		m.Today.Sessions, m.Global.Sessions,
		m.Today.Messages,
		formatTokens(m.Today.ContextTokens),
		formatTokens(m.Today.OutputTokens),
		m.SortKey, dir,
	)
	return theme.StyleDimmed.Render(truncOrPad(stats, m.width()))
}

type headerCol struct {
	label string
	key   session.SortKey
	width int
}

func (m Model) renderColumnHeaders() string {
	tw := m.titleWidth()

	row1 := []headerCol{
		{"TITLE", session.ByTitle, tw},
		{"STATUS", session.ByStatus, colStatus},
		{"SID", session.BySessionID, colSID},
		{"UP", session.ByUptime, colUp},
		{"CPU", session.ByCPU, colCPU},
		{"CTX", session.ByTokens, colTok},
		{"MODEL", session.ByModel, colModel},
	}
	row2 := []headerCol{
		{"LAST", session.ByLastOutput, tw},
		{"MSGS", session.ByMessages, colStatus},
		{"PID", session.ByPID, colSID},
		{"ROUND", session.ByRound, colUp},
		{"MEM", session.ByMem, colCPU},
		{"OUT", session.ByTokens, colTok},
		{"TTY", session.ByTTY, colModel},
	}

	render := func(cols []headerCol) string {
		parts := make([]string, 0, len(cols))
		for _, c := range cols {
			text := truncOrPad(c.label, c.width)
			if c.key == m.SortKey {
				parts = append(parts, theme.StyleSortActive.Render(text))
			} else {
				parts = append(parts, theme.StyleColumnHead.Render(text))
			}
		}
		return "  " + strings.Join(parts, "  ") + "\n"
	}

	return render(row1) + render(row2)
}

func (m Model) renderRowLine1(r session.Row, selected bool) string {
	tw := m.titleWidth()

	if r.Session == nil {
		text := "  " + truncOrPad(r.Process.Cmdline, tw) +
			"  " + truncOrPad("no-session", colStatus) +
			"  " + truncOrPad("", colSID) +
			"  " + truncOrPad("", colUp) +
			"  " + truncOrPad(formatCPU(r.Process.CPUPercent), colCPU) +
			"  " + truncOrPad("", colTok) +
			"  " + truncOrPad("", colModel)
		if selected {
			return theme.StyleSelected.Render(truncOrPad(text, m.width()))
		}
		return theme.StyleDimmed.Render(truncOrPad(text, m.width()))
	}

	s := r.Session
	text := "  " + truncOrPad(s.Title, tw) +
		"  " + truncOrPad(r.Status.String(), colStatus) +
		"  " + truncOrPad(s.ID, colSID) +
		"  " + truncOrPad(formatElapsed(r.Process.StartTimeMS, m.Now), colUp) +
		"  " + truncOrPad(formatCPU(r.Process.CPUPercent), colCPU) +
		"  " + truncOrPad(formatTokens(s.ContextTokens), colTok) +
		"  " + truncOrPad(shortModel(s.Model), colModel)

	if selected {
		return theme.StyleSelected.Render(truncOrPad(text, m.width()))
	}
	style := lipgloss.NewStyle().Foreground(theme.StatusColor(r.Status))
	return style.Render(truncOrPad(text, m.width()))
}

func (m Model) renderRowLine2(r session.Row, selected bool) string {
	tw := m.titleWidth()

	if r.Session == nil {
		text := "  " + truncOrPad(shortPath(r.Process.Cwd, tw), tw) +
			"  " + truncOrPad("", colStatus) +
			"  " + truncOrPad(fmt.Sprintf("%d", r.Process.PID), colSID) +
			"  " + truncOrPad("", colUp) +
			"  " + truncOrPad(formatRSS(r.Process.RSSBytes), colCPU) +
			"  " + truncOrPad("", colTok) +
			"  " + truncOrPad(r.Process.TTY, colModel)
		if selected {
			return theme.StyleSelected.Render(truncOrPad(text, m.width()))
		}
		return theme.StyleDimmed.Render(truncOrPad(text, m.width()))
	}

	s := r.Session
	text := "  " + truncOrPad(s.LastOutputLine, tw) +
		"  " + truncOrPad(fmt.Sprintf("%d", s.MessageCount), colStatus) +
		"  " + truncOrPad(fmt.Sprintf("%d", r.Process.PID), colSID) +
		"  " + truncOrPad(formatElapsed(s.RoundStartMS, m.Now), colUp) +
		"  " + truncOrPad(formatRSS(r.Process.RSSBytes), colCPU) +
		"  " + truncOrPad(formatTokens(s.OutputTokens), colTok) +
		"  " + truncOrPad(r.Process.TTY, colModel)

	if selected {
		return theme.StyleSelected.Render(truncOrPad(text, m.width()))
	}
	// The last-output line carries the age gradient.
	style := lipgloss.NewStyle().Foreground(theme.StalenessColor(s.LastMessageMS, m.Now))
	return style.Render(truncOrPad(text, m.width()))
}

// -- formatting helpers --

func formatTokens(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

func formatCPU(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// formatRSS renders resident memory compactly ("119MiB").
func formatRSS(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return strings.ReplaceAll(humanize.IBytes(uint64(bytes)), " ", "")
}

// formatElapsed renders the distance from an epoch-ms start to now, or an
// em-dash when the start is unknown.
func formatElapsed(startMS int64, now time.Time) string {
	if startMS <= 0 {
		return "—"
	}
	return formatDuration(now.UnixMilli() - startMS)
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "—"
	}
	secs := ms / 1000
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	mins := secs / 60
	secs %= 60
	if mins < 60 {
		return fmt.Sprintf("%dm%02ds", mins, secs)
	}
	hours := mins / 60
	mins %= 60
	if hours < 24 {
		return fmt.Sprintf("%dh%02dm", hours, mins)
	}
	days := hours / 24
	hours %= 24
	return fmt.Sprintf("%dd%dh", days, hours)
}

func shortModel(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	model = strings.TrimPrefix(model, "claude-")
	if len(model) > colModel {
		model = model[:colModel]
	}
	return model
}

func shortPath(path string, maxLen int) string {
	if home, _ := os.UserHomeDir(); home != "" && strings.HasPrefix(path, home) {
		path = "~" + path[len(home):]
	}
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[len(path)-maxLen:]
	}
	return "..." + path[len(path)-(maxLen-3):]
}

// truncOrPad truncates or right-pads a string to exactly width cells.
// Rune-aware so titles and the em-dash don't skew column alignment.
func truncOrPad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width])
	}
	if len(runes) < width {
		return s + strings.Repeat(" ", width-len(runes))
	}
	return s
}
