package client

import (
	"strings"
	"testing"

	"github.com/opencode-htop/octop/internal/session"
)

func TestHTTPClientFetchSnapshot(t *testing.T) {
	store, ts := startServer(t, "")
	store.Publish(serverSnapshot())

	c := NewHTTPClient(ts.URL, "")
	snap, err := c.FetchSnapshot()
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if snap == nil || len(snap.Rows) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Rows[0].Session.ID != "ses_one" || snap.Rows[0].Status != session.Generating {
		t.Errorf("row = %+v", snap.Rows[0])
	}
	if !snap.DBPresent {
		t.Error("DBPresent lost in transit")
	}
}

func TestHTTPClientFetchSnapshotBeforeFirstPublish(t *testing.T) {
	_, ts := startServer(t, "")

	c := NewHTTPClient(ts.URL, "")
	snap, err := c.FetchSnapshot()
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if snap != nil {
		t.Errorf("snapshot = %+v, want nil before first publish", snap)
	}
}

func TestHTTPClientFetchSessions(t *testing.T) {
	store, ts := startServer(t, "")
	snap := serverSnapshot()
	snap.Rows = append(snap.Rows, session.Row{
		Process: session.ProcessFact{PID: 41300, Cwd: "/home/u/web"},
	})
	store.Publish(snap)

	c := NewHTTPClient(ts.URL, "")
	facts, err := c.FetchSessions()
	if err != nil {
		t.Fatalf("FetchSessions: %v", err)
	}
	if len(facts) != 1 || facts[0].ID != "ses_one" {
		t.Errorf("facts = %+v, want just the bound session", facts)
	}
}

func TestHTTPClientSendsBearerToken(t *testing.T) {
	store, ts := startServer(t, "sekrit")
	store.Publish(serverSnapshot())

	if _, err := NewHTTPClient(ts.URL, "").FetchSnapshot(); err == nil {
		t.Error("tokenless fetch succeeded against protected server")
	}

	snap, err := NewHTTPClient(ts.URL, "sekrit").FetchSnapshot()
	if err != nil {
		t.Fatalf("authorized fetch: %v", err)
	}
	if len(snap.Rows) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHTTPClientFocusSessionErrors(t *testing.T) {
	store, ts := startServer(t, "")
	snap := serverSnapshot()
	snap.Rows = append(snap.Rows, session.Row{
		Process: session.ProcessFact{PID: 41300, Cwd: "/home/u/web"},
		Session: &session.SessionFact{ID: "ses_headless", Title: "batch run", Directory: "/home/u/web"},
	})
	store.Publish(snap)

	c := NewHTTPClient(ts.URL, "")

	err := c.FocusSession("ses_missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("unknown session error = %v, want 404", err)
	}

	err = c.FocusSession("ses_headless")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Errorf("no-terminal error = %v, want 409", err)
	}
}

func TestHTTPClientTrimsTrailingSlash(t *testing.T) {
	store, ts := startServer(t, "")
	store.Publish(serverSnapshot())

	c := NewHTTPClient(ts.URL+"/", "")
	if _, err := c.FetchSnapshot(); err != nil {
		t.Errorf("FetchSnapshot with trailing slash base: %v", err)
	}
}
