package mcp

import (
	"strings"
	"testing"

	"github.com/opencode-htop/octop/internal/session"
)

func TestViewEmpty(t *testing.T) {
	if v := View(nil, 80); !strings.Contains(v, "no mcp config") {
		t.Error("empty config should render the placeholder")
	}
}

func TestViewMarksAndTypes(t *testing.T) {
	servers := []session.MCPServer{
		{Name: "playwright", Type: "local", Enabled: true},
		{Name: "sentry", Type: "remote", Enabled: false},
		{Name: "scratch", Enabled: true},
	}
	v := View(servers, 80)

	if !strings.Contains(v, "✓ playwright") {
		t.Error("enabled server should carry a check mark")
	}
	if !strings.Contains(v, "✗ sentry") {
		t.Error("disabled server should carry a cross")
	}
	if !strings.Contains(v, "local") || !strings.Contains(v, "remote") {
		t.Error("server types should render")
	}
	if !strings.Contains(v, "?") {
		t.Error("untyped server should render a question mark")
	}
}
