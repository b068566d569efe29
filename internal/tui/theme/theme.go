// Package theme provides the Lip Gloss color palette and reusable styles
// for the octop TUI. It is a leaf package with no internal imports to
// avoid import cycles.
package theme

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-htop/octop/internal/session"
)

// Model colors.
var (
	ColorClaude  = lipgloss.Color("#a855f7")
	ColorGPT     = lipgloss.Color("#10b981")
	ColorGemini  = lipgloss.Color("#4285f4")
	ColorQwen    = lipgloss.Color("#f97316")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// Status colors.
var (
	ColorGenerating = lipgloss.Color("#22c55e")
	ColorToolUse    = lipgloss.Color("#d97706")
	ColorBusy       = lipgloss.Color("#16a34a")
	ColorThinking   = lipgloss.Color("#2563eb")
	ColorQueued     = lipgloss.Color("#854d0e")
	ColorIdle       = lipgloss.Color("#e5e7eb")
	ColorStale      = lipgloss.Color("#4b5563")
	ColorTruncated  = lipgloss.Color("#dc2626")
	ColorUnknown    = lipgloss.Color("#6b7280")
)

// Staleness gradient for the last-output column.
var (
	ColorFresh    = lipgloss.Color("#22c55e") // <1m
	ColorRecent   = lipgloss.Color("#eab308") // <5m
	ColorAging    = lipgloss.Color("#fb923c") // <15m
	ColorOld      = lipgloss.Color("#ea580c") // <1h
	ColorAncient  = lipgloss.Color("#dc2626") // 1h+
	ColorNoSignal = lipgloss.Color("#4b5563")
)

// Context gauge thresholds.
var (
	ColorContextLow  = lipgloss.Color("#22c55e") // <50%
	ColorContextMid  = lipgloss.Color("#d97706") // 50-80%
	ColorContextHigh = lipgloss.Color("#dc2626") // >80%
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// StatusColor returns the color for an inferred status.
func StatusColor(s session.Status) lipgloss.Color {
	switch s {
	case session.Generating:
		return ColorGenerating
	case session.ToolUse:
		return ColorToolUse
	case session.Busy:
		return ColorBusy
	case session.Thinking:
		return ColorThinking
	case session.Queued:
		return ColorQueued
	case session.Idle:
		return ColorIdle
	case session.Stale:
		return ColorStale
	case session.Truncated:
		return ColorTruncated
	default:
		return ColorUnknown
	}
}

// StatusGlyph returns a compact glyph for a status.
func StatusGlyph(s session.Status) string {
	switch s {
	case session.Generating:
		return "●"
	case session.ToolUse:
		return "⚙"
	case session.Busy:
		return "▸"
	case session.Thinking:
		return "◌"
	case session.Queued:
		return "◦"
	case session.Idle:
		return "○"
	case session.Stale:
		return "·"
	case session.Truncated:
		return "✗"
	default:
		return "?"
	}
}

// StalenessColor maps the age of the last message to a gradient color:
// green under a minute, through yellow and orange, red past an hour.
func StalenessColor(lastMessageMS int64, now time.Time) lipgloss.Color {
	if lastMessageMS <= 0 {
		return ColorNoSignal
	}
	age := time.Duration(now.UnixMilli()-lastMessageMS) * time.Millisecond
	switch {
	case age < time.Minute:
		return ColorFresh
	case age < 5*time.Minute:
		return ColorRecent
	case age < 15*time.Minute:
		return ColorAging
	case age < time.Hour:
		return ColorOld
	default:
		return ColorAncient
	}
}

// ModelColor returns the color for a model name.
func ModelColor(model string) lipgloss.Color {
	switch {
	case contains(model, "claude"), contains(model, "opus"),
		contains(model, "sonnet"), contains(model, "haiku"):
		return ColorClaude
	case contains(model, "gpt"), contains(model, "codex"), contains(model, "o1"):
		return ColorGPT
	case contains(model, "gemini"):
		return ColorGemini
	case contains(model, "qwen"):
		return ColorQwen
	default:
		return ColorDefault
	}
}

// ContextColor returns the gauge color for a context utilization fraction.
func ContextColor(pct float64) lipgloss.Color {
	switch {
	case pct > 0.8:
		return ColorContextHigh
	case pct > 0.5:
		return ColorContextMid
	default:
		return ColorContextLow
	}
}

// Reusable styles.
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Background(lipgloss.Color("#155e75")).
			Foreground(ColorBright)

	StyleSortActive = lipgloss.NewStyle().
			Background(lipgloss.Color("#854d0e")).
			Foreground(ColorBright).
			Bold(true)

	StyleColumnHead = lipgloss.NewStyle().
			Foreground(ColorDimmed).
			Bold(true)

	StyleKey = lipgloss.NewStyle().
			Foreground(ColorBright)

	StyleFlash = lipgloss.NewStyle().
			Foreground(ColorHealthy).
			Bold(true)
)

func contains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
