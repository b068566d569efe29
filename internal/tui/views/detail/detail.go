// Package detail renders the drill-in view for one row: session facts
// with an animated context gauge, then either a live tmux pane capture
// or the session's message history.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/opencode-htop/octop/internal/monitor"
	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/tui/theme"
)

// Content sources.
const (
	SourceTmux    = "tmux"
	SourceHistory = "history"
	SourceRow     = "row" // attach mode: facts carried in the snapshot
)

const (
	gaugeWidth = 24
	labelWidth = 12
)

var (
	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleCost = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model holds the drill-in state for the currently selected row.
type Model struct {
	Width  int
	Height int

	Row        session.Row
	MaxContext int
	Source     string
	FocusError string

	vp     viewport.Model
	spin   spinner.Model
	loaded bool

	spring   harmonica.Spring
	gaugePos float64
	gaugeVel float64
}

func New() Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorThinking)),
	)
	return Model{
		vp:     viewport.New(0, 0),
		spin:   sp,
		spring: harmonica.NewSpring(harmonica.FPS(30), 6.0, 0.8),
	}
}

// Open resets the view for a newly selected row. The gauge animates up
// from zero on each open.
func (m *Model) Open(row session.Row, maxContext int) {
	m.Row = row
	m.MaxContext = maxContext
	m.Source = ""
	m.FocusError = ""
	m.loaded = false
	m.gaugePos = 0
	m.gaugeVel = 0
	m.vp.GotoTop()
}

// UpdateRow refreshes the fact header from a newer snapshot without
// touching scroll position or content.
func (m *Model) UpdateRow(row session.Row) {
	m.Row = row
}

func (m *Model) SetSize(width, height int) {
	m.Width = width
	m.Height = height
	m.vp.Width = width
	body := height - m.headerHeight() - 1 // footer
	if body < 3 {
		body = 3
	}
	m.vp.Height = body
}

// SetContent swaps in new body lines. Tmux captures keep the scroll
// position so a live pane doesn't jump; switching sources resets it.
func (m *Model) SetContent(lines []string, source string) {
	sourceChanged := source != m.Source
	m.Source = source
	m.loaded = true
	m.vp.SetContent(strings.Join(lines, "\n"))
	if sourceChanged {
		m.vp.GotoTop()
	}
}

func (m Model) Loaded() bool { return m.loaded }

// SpinnerTick starts the loading spinner.
func (m Model) SpinnerTick() tea.Cmd { return m.spin.Tick }

// UpdateSpinner forwards a tick while the body is still loading and
// returns the follow-up tick command, or nil once content arrived.
func (m *Model) UpdateSpinner(msg spinner.TickMsg) tea.Cmd {
	if m.loaded {
		return nil
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return cmd
}

func (m *Model) ScrollDown(n int) { m.vp.LineDown(n) }
func (m *Model) ScrollUp(n int)   { m.vp.LineUp(n) }
func (m *Model) HalfPageDown()    { m.vp.HalfViewDown() }
func (m *Model) HalfPageUp()      { m.vp.HalfViewUp() }
func (m *Model) ScrollTop()       { m.vp.GotoTop() }
func (m *Model) ScrollBottom()    { m.vp.GotoBottom() }

// AnimateGauge advances the context gauge spring one frame and reports
// whether it is still visibly moving.
func (m *Model) AnimateGauge() bool {
	target := m.gaugeTarget()
	m.gaugePos, m.gaugeVel = m.spring.Update(m.gaugePos, m.gaugeVel, target)
	still := abs(m.gaugePos-target) > 0.001 || abs(m.gaugeVel) > 0.001
	if !still {
		m.gaugePos = target
		m.gaugeVel = 0
	}
	return still
}

func (m Model) gaugeTarget() float64 {
	if m.Row.Session == nil || m.MaxContext <= 0 {
		return 0
	}
	pct := float64(m.Row.Session.ContextTokens) / float64(m.MaxContext)
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

func (m Model) headerHeight() int {
	// breadcrumb + facts block + separator
	if m.Row.Session == nil {
		return 6
	}
	return 12
}

// View renders the full-screen detail: header facts, body, footer.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderBreadcrumb())
	b.WriteByte('\n')
	m.renderFacts(&b)
	b.WriteString(theme.StyleDimmed.Render(strings.Repeat("─", m.width())))
	b.WriteByte('\n')

	if !m.loaded {
		b.WriteString("  " + m.spin.View() + " loading…\n")
	} else {
		b.WriteString(m.vp.View())
		b.WriteByte('\n')
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) width() int {
	if m.Width < 40 {
		return 40
	}
	return m.Width
}

func (m Model) renderBreadcrumb() string {
	sid := "-"
	if m.Row.Session != nil {
		sid = m.Row.Session.ID
	}
	crumb := " opencode > sessions > " + sid
	if m.Source != "" {
		crumb += " [" + m.Source + "]"
	}
	right := theme.StatusGlyph(m.Row.Status) + " " + m.Row.Status.String() + " "
	pad := m.width() - lipgloss.Width(crumb) - lipgloss.Width(right)
	if pad < 0 {
		pad = 0
	}
	line := crumb + strings.Repeat(" ", pad) + right
	if runes := []rune(line); len(runes) > m.width() {
		line = string(runes[:m.width()])
	}
	return theme.StyleHeader.Render(line)
}

func (m Model) renderFacts(b *strings.Builder) {
	p := m.Row.Process
	s := m.Row.Session

	if s == nil {
		writeRow(b, "Command", truncate(p.Cmdline, m.width()-labelWidth-2))
		writeRow(b, "Directory", shortPath(p.Cwd, m.width()-labelWidth-2))
		writeRow(b, "Process", fmt.Sprintf("pid %d  tty %s  cpu %.1f%%", p.PID, orDash(p.TTY), p.CPUPercent))
		b.WriteString("\n")
		return
	}

	writeRow(b, "Title", truncate(s.Title, m.width()-labelWidth-2))
	writeRow(b, "Model", lipgloss.NewStyle().Foreground(theme.ModelColor(s.Model)).Render(s.Model)+agentSuffix(s.Agent))
	writeRow(b, "Status", lipgloss.NewStyle().Foreground(theme.StatusColor(m.Row.Status)).Render(m.Row.Status.String()))
	writeRow(b, "Directory", shortPath(s.Directory, m.width()-labelWidth-2))
	writeRow(b, "Process", fmt.Sprintf("pid %d  tty %s  cpu %.1f%%  started %s",
		p.PID, orDash(p.TTY), p.CPUPercent, relativeMS(p.StartTimeMS)))

	gauge := renderGauge(m.gaugePos, gaugeWidth)
	ctxLine := fmt.Sprintf("%s %3.0f%%  %s / %s", gauge, m.gaugeTarget()*100,
		formatTokens(s.ContextTokens), formatTokens(int64(m.MaxContext)))
	writeRow(b, "Context", ctxLine)
	writeRow(b, "Output", fmt.Sprintf("%s  (cache read %s)",
		formatTokens(s.OutputTokens), formatTokens(s.CacheReadTokens)))
	writeRow(b, "Cost", styleCost.Render(fmt.Sprintf("~$%.4f", s.Cost)))
	writeRow(b, "Messages", fmt.Sprintf("%d  last %s  round %s",
		s.MessageCount, relativeMS(s.LastMessageMS), relativeMS(s.RoundStartMS)))
	b.WriteString("\n")
}

func (m Model) renderFooter() string {
	parts := []string{
		theme.StyleKey.Render("esc") + " " + theme.StyleDimmed.Render("back"),
		theme.StyleKey.Render("r") + " " + theme.StyleDimmed.Render("refresh"),
		theme.StyleKey.Render("tab") + " " + theme.StyleDimmed.Render("tmux/history"),
		theme.StyleKey.Render("j/k") + " " + theme.StyleDimmed.Render("scroll"),
		theme.StyleKey.Render("f") + " " + theme.StyleDimmed.Render("focus pane"),
	}
	line := " " + strings.Join(parts, "  ")
	if m.FocusError != "" {
		line += "  " + lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(m.FocusError)
	}
	return line
}

// -- content builders --

// HistoryLines renders db message history as terminal markdown.
func HistoryLines(msgs []monitor.MessageDetail, width int) []string {
	if len(msgs) == 0 {
		return []string{"  (no messages)"}
	}
	if width < 40 {
		width = 40
	}

	var md strings.Builder
	for _, msg := range msgs {
		ts := ""
		if msg.TimeCreatedMS > 0 {
			ts = time.UnixMilli(msg.TimeCreatedMS).Format("15:04:05")
		}
		head := fmt.Sprintf("### %s %s", msg.Role, ts)
		if msg.Role == "assistant" {
			extra := msg.Finish
			if msg.TokensOut > 0 {
				extra += fmt.Sprintf("  ctx:%s out:%s",
					formatTokens(msg.TokensIn+msg.CacheRead), formatTokens(msg.TokensOut))
			}
			if extra != "" {
				head += " — " + extra
			}
		}
		md.WriteString(head + "\n\n")
		if msg.Text != "" {
			md.WriteString(msg.Text + "\n\n")
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return strings.Split(md.String(), "\n")
	}
	out, err := renderer.Render(md.String())
	if err != nil {
		return strings.Split(md.String(), "\n")
	}
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}

// RowLines builds a body from facts already in the snapshot row, for
// attach mode where neither tmux nor the database is reachable.
func RowLines(row session.Row) []string {
	s := row.Session
	if s == nil {
		return []string{"  (no session data)"}
	}
	lines := []string{""}
	if s.LastOutputLine != "" {
		lines = append(lines, "  last output:", "    "+s.LastOutputLine, "")
	}
	if len(s.Todos) > 0 {
		lines = append(lines, "  todos:")
		for _, todo := range s.Todos {
			glyph := map[string]string{
				"completed":   "x",
				"in_progress": ">",
				"pending":     " ",
				"cancelled":   "-",
			}[todo.Status]
			if glyph == "" {
				glyph = "?"
			}
			lines = append(lines, fmt.Sprintf("    [%s] %s", glyph, todo.Content))
		}
	} else {
		lines = append(lines, "  (history is only available on the serving host)")
	}
	return lines
}

// -- helpers --

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func renderGauge(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(theme.ContextColor(pct)).Render(bar)
}

func agentSuffix(agent string) string {
	if agent == "" {
		return ""
	}
	return theme.StyleDimmed.Render("  agent:" + agent)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTokens(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

func relativeMS(ms int64) string {
	if ms <= 0 {
		return "—"
	}
	return humanize.Time(time.UnixMilli(ms))
}

func shortPath(path string, maxLen int) string {
	if len(path) <= maxLen || maxLen <= 3 {
		return path
	}
	return "..." + path[len(path)-(maxLen-3):]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
