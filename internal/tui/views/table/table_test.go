package table

import (
	"strings"
	"testing"
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1_000, "1.0K"},
		{14_500, "14.5K"},
		{150_000, "150.0K"},
		{1_250_000, "1.2M"},
	}
	for _, tt := range tests {
		if got := formatTokens(tt.n); got != tt.want {
			t.Errorf("formatTokens(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "—"},
		{-50, "—"},
		{9_000, "9s"},
		{59_000, "59s"},
		{60_000, "1m00s"},
		{95_000, "1m35s"},
		{3_600_000, "1h00m"},
		{5_520_000, "1h32m"},
		{90_000_000, "1d1h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestFormatRSS(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "-"},
		{512, "512B"},
		{2048, "2.0KiB"},
		{124_780_544, "119MiB"},
	}
	for _, tt := range tests {
		if got := formatRSS(tt.bytes); got != tt.want {
			t.Errorf("formatRSS(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestTruncOrPad(t *testing.T) {
	if got := truncOrPad("abc", 5); got != "abc  " {
		t.Errorf("pad = %q", got)
	}
	if got := truncOrPad("abcdef", 4); got != "abcd" {
		t.Errorf("trunc = %q", got)
	}
	// Rune-aware: the em-dash is one cell, not three bytes.
	if got := truncOrPad("—", 3); got != "—  " {
		t.Errorf("em-dash pad = %q", got)
	}
	if got := truncOrPad("héllo", 5); got != "héllo" {
		t.Errorf("exact multibyte = %q", got)
	}
}

func TestShortModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"anthropic/claude-sonnet-4-5", "sonnet-4-5"},
		{"claude-opus-4", "opus-4"},
		{"openai/gpt-4o", "gpt-4o"},
		{"google/gemini-2.5-pro-exp", "gemini-2.5-p"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortModel(tt.model); got != tt.want {
			t.Errorf("shortModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestShortPath(t *testing.T) {
	if got := shortPath("/tmp/x", 20); got != "/tmp/x" {
		t.Errorf("short path = %q", got)
	}
	got := shortPath("/very/long/path/to/some/project", 15)
	if len(got) != 15 || !strings.HasPrefix(got, "...") {
		t.Errorf("truncated path = %q", got)
	}
	if !strings.HasSuffix(got, "project") {
		t.Errorf("tail lost: %q", got)
	}
}

func gridRows() []session.Row {
	return []session.Row{
		{
			Process: session.ProcessFact{PID: 41234, CPUPercent: 12.5, RSSBytes: 124_780_544, TTY: "pts/3", Cwd: "/home/u/api"},
			Session: &session.SessionFact{
				ID: "ses_9f2ab", Title: "fix auth flow", Model: "claude-sonnet-4-5",
				MessageCount: 42, ContextTokens: 112_000, OutputTokens: 9_400,
				LastOutputLine: "Running tests now",
			},
			Status: session.Generating,
		},
		{
			Process: session.ProcessFact{PID: 41300, CPUPercent: 0.1, Cwd: "/home/u/web", Cmdline: "opencode"},
		},
	}
}

func TestSetRowsClampsCursor(t *testing.T) {
	m := New()
	m.Width, m.Height = 120, 30
	m.Cursor = 10
	m.SetRows(gridRows())
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want clamped to 1", m.Cursor)
	}
	m.SetRows(nil)
	if m.Cursor != 0 {
		t.Errorf("cursor on empty = %d, want 0", m.Cursor)
	}
}

func TestMoveAndScroll(t *testing.T) {
	m := New()
	m.Width = 120
	m.Height = 5 + 1 + linesPerRow*2 // page of exactly two rows

	rows := make([]session.Row, 6)
	for i := range rows {
		rows[i] = session.Row{Process: session.ProcessFact{PID: 1000 + i}}
	}
	m.SetRows(rows)

	m.Move(-1)
	if m.Cursor != 0 {
		t.Errorf("cursor after up at top = %d", m.Cursor)
	}
	for i := 0; i < 10; i++ {
		m.Move(1)
	}
	if m.Cursor != 5 {
		t.Errorf("cursor after overshoot = %d, want 5", m.Cursor)
	}
	if m.Offset == 0 {
		t.Error("offset never advanced while cursoring past the page")
	}
	m.Home()
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("after Home cursor=%d offset=%d", m.Cursor, m.Offset)
	}
	m.End()
	if m.Cursor != 5 {
		t.Errorf("after End cursor=%d", m.Cursor)
	}
	if !m.SelectMode {
		t.Error("movement did not enter select mode")
	}
}

func TestSelected(t *testing.T) {
	m := New()
	m.Width, m.Height = 120, 30
	if _, ok := m.Selected(); ok {
		t.Error("Selected on empty grid reported a row")
	}
	m.SetRows(gridRows())
	m.Cursor = 1
	row, ok := m.Selected()
	if !ok || row.Process.PID != 41300 {
		t.Errorf("Selected = %+v ok=%v", row, ok)
	}
}

func TestViewShowsBoundAndUnboundRows(t *testing.T) {
	m := New()
	m.Width, m.Height = 140, 40
	m.Now = time.Now()
	m.ActiveCount = 1
	m.Today = session.Aggregate{Sessions: 2, Messages: 84, ContextTokens: 500_000, OutputTokens: 42_000}
	m.Global = session.Aggregate{Sessions: 14}
	m.SetRows(gridRows())

	out := m.View()
	for _, want := range []string{
		"fix auth flow", "generating", "ses_9f2ab", "sonnet-4-5",
		"Running tests now", "no-session", "41300",
		"1 active", "2/14 sessions", "sort:status asc",
		"TITLE", "LAST", "MODEL", "TTY",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewEmptyGrid(t *testing.T) {
	m := New()
	m.Width, m.Height = 100, 30
	out := m.View()
	if !strings.Contains(out, "no opencode processes") {
		t.Error("empty grid placeholder missing")
	}
}
