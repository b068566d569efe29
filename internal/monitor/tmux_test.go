package monitor

import "testing"

func TestParsePanes(t *testing.T) {
	out := `/dev/pts/3 main:2.0 api
/dev/pts/7 main:2.1 web frontend
/dev/pts/9 scratch:0.0
`
	panes := parsePanes(out)

	p, ok := panes["pts/3"]
	if !ok {
		t.Fatal("pts/3 missing")
	}
	if p.Target != "main:2.0" || p.Session != "main" || p.Title != "api" {
		t.Errorf("got %+v, want target main:2.0 session main title api", p)
	}

	// Window names may contain spaces; everything after the target is title.
	if p := panes["pts/7"]; p.Title != "web frontend" {
		t.Errorf("Title = %q, want %q", p.Title, "web frontend")
	}

	// A pane without a window name still maps.
	if p := panes["pts/9"]; p.Target != "scratch:0.0" || p.Title != "" {
		t.Errorf("got %+v, want bare target", p)
	}
}

func TestParsePanesEmpty(t *testing.T) {
	if panes := parsePanes(""); len(panes) != 0 {
		t.Errorf("got %d panes from empty output, want 0", len(panes))
	}
}
