package monitor

import (
	"os"
	"path/filepath"
	"testing"
)

func writeHostConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opencode.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write host config: %v", err)
	}
	return path
}

func TestReadMCPServers(t *testing.T) {
	path := writeHostConfig(t, `{
		"model": "anthropic/claude-opus-4",
		"mcp": {
			"playwright": {"type": "local", "command": ["npx", "@playwright/mcp"]},
			"context7": {"type": "remote", "url": "https://mcp.context7.com", "enabled": false},
			"archive": {"type": "local", "enabled": true}
		}
	}`)

	got := ReadMCPServers(path)
	if len(got) != 3 {
		t.Fatalf("got %d servers, want 3: %+v", len(got), got)
	}

	// Sorted by name.
	wantNames := []string{"archive", "context7", "playwright"}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Errorf("got[%d].Name = %q, want %q", i, got[i].Name, name)
		}
	}

	if !got[0].Enabled {
		t.Error("explicit enabled:true parsed as disabled")
	}
	if got[1].Enabled {
		t.Error("enabled:false parsed as enabled")
	}
	if !got[2].Enabled {
		t.Error("server without enabled key must default to enabled")
	}
	if got[1].Type != "remote" || got[2].Type != "local" {
		t.Errorf("types wrong: %+v", got)
	}
}

func TestReadMCPServersMissingOrMalformed(t *testing.T) {
	if got := ReadMCPServers(filepath.Join(t.TempDir(), "nope.json")); got != nil {
		t.Errorf("missing file: got %+v, want nil", got)
	}
	if got := ReadMCPServers(writeHostConfig(t, "{broken")); got != nil {
		t.Errorf("malformed json: got %+v, want nil", got)
	}
	if got := ReadMCPServers(writeHostConfig(t, `{"model":"x"}`)); got != nil {
		t.Errorf("config without mcp block: got %+v, want nil", got)
	}
}
