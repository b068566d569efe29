package statusbar

import (
	"strings"
	"testing"
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

func TestViewShowsKeyHints(t *testing.T) {
	m := New()
	m.Width = 120
	v := m.View()
	for _, want := range []string{"quit", "sort", "filter", "todos", "help"} {
		if !strings.Contains(v, want) {
			t.Errorf("bar should mention %q hint", want)
		}
	}
}

func TestFilterPromptReplacesBar(t *testing.T) {
	m := New()
	m.Width = 120
	m.FilterActive = true
	m.FilterView = "/auth"
	v := m.View()
	if !strings.Contains(v, "/auth") {
		t.Error("active filter should render the prompt")
	}
	if strings.Contains(v, "quit") {
		t.Error("active filter should hide the key hints")
	}
}

func TestHealthSegments(t *testing.T) {
	m := New()
	m.Width = 200
	m.Source = "ps"
	m.Health = []session.SourceStatus{
		{Source: "db", OK: true},
		{Source: "lsof", OK: false, Failures: 3},
	}
	v := m.View()
	if !strings.Contains(v, "db:ok") {
		t.Error("healthy source should read ok")
	}
	if !strings.Contains(v, "lsof:err") {
		t.Error("failing source should read err")
	}
	if !strings.Contains(v, "src:ps") {
		t.Error("local mode should name the process source")
	}
}

func TestAttachConnectionState(t *testing.T) {
	m := New()
	m.Width = 200
	m.Attach = true

	if v := m.View(); !strings.Contains(v, "reconnecting") {
		t.Error("disconnected attach should read reconnecting")
	}

	m.Connected = true
	if v := m.View(); !strings.Contains(v, "attached") {
		t.Error("connected attach should read attached")
	}
}

func TestFlashOverridesRightSegment(t *testing.T) {
	m := New()
	m.Width = 200
	m.Source = "ps"
	m.Flash("copied ses_9f2ab")

	v := m.View()
	if !strings.Contains(v, "copied ses_9f2ab") {
		t.Error("fresh flash should be visible")
	}
	if strings.Contains(v, "src:ps") {
		t.Error("flash should displace the source segment")
	}
}

func TestFlashExpires(t *testing.T) {
	m := New()
	m.Width = 200
	m.flashMsg = "old news"
	m.flashAt = time.Now().Add(-2 * time.Second)

	if m.FlashActive() {
		t.Error("flash older than the window should be inactive")
	}
	if v := m.View(); strings.Contains(v, "old news") {
		t.Error("expired flash should not render")
	}
}

func TestNarrowWidthDropsRightSegment(t *testing.T) {
	m := New()
	m.Width = 30
	m.Source = "ps"
	v := m.View()
	if strings.Contains(v, "src:ps") {
		t.Error("right segment should be dropped when it cannot fit")
	}
}
