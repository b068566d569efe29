package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

func testSnapshot() *session.Snapshot {
	return &session.Snapshot{
		TakenAt:   time.Now(),
		DBPresent: true,
		Rows: []session.Row{
			{
				Process: session.ProcessFact{PID: 41234, TTY: "pts/3", Cwd: "/home/u/api"},
				Session: &session.SessionFact{ID: "ses_one", Title: "fix auth", Directory: "/home/u/api"},
				Status:  session.Generating,
			},
			{
				Process: session.ProcessFact{PID: 41300, Cwd: "/home/u/web"},
			},
		},
	}
}

func newTestServer(t *testing.T, privacy *session.PrivacyFilter, token string) (*Server, *session.Store, *httptest.Server) {
	t.Helper()
	store := session.NewStore()
	b := NewBroadcaster(store, privacy, HelloPayload{ServerVersion: "test"})
	s := NewServer(store, b, privacy, nil, token)

	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, store, ts
}

func TestAuthorize(t *testing.T) {
	authed := func(configure func(*http.Request)) bool {
		s := &Server{authToken: "secret"}
		r := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
		configure(r)
		return s.authorize(r)
	}

	if !authed(func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret") }) {
		t.Error("bearer token rejected")
	}
	if !authed(func(r *http.Request) { r.Header.Set("X-Octop-Token", "secret") }) {
		t.Error("header token rejected")
	}
	if !authed(func(r *http.Request) {
		q := r.URL.Query()
		q.Set("token", "secret")
		r.URL.RawQuery = q.Encode()
	}) {
		t.Error("query token rejected")
	}
	if authed(func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong") }) {
		t.Error("wrong token accepted")
	}
	if authed(func(*http.Request) {}) {
		t.Error("request without credentials accepted")
	}

	open := &Server{}
	if !open.authorize(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Error("empty token config must disable auth")
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin header", nil, "", "example.com", true},
		{"same host", nil, "http://example.com", "example.com", true},
		{"localhost default", nil, "http://localhost:3000", "example.com", true},
		{"loopback default", nil, "http://127.0.0.1:8080", "example.com", true},
		{"foreign host", nil, "http://evil.test", "example.com", false},
		{"explicit allow", []string{"http://dash.test"}, "http://dash.test", "example.com", true},
		{"explicit allow by host", []string{"http://dash.test"}, "https://dash.test", "example.com", true},
		{"explicit list blocks others", []string{"http://dash.test"}, "http://localhost:3000", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(session.NewStore(), nil, nil, tt.allowed, "")
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := s.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin(origin=%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestHandleSessionsReturnsBoundFacts(t *testing.T) {
	_, store, ts := newTestServer(t, nil, "")
	store.Publish(testSnapshot())

	resp, err := http.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var facts []*session.SessionFact
	if err := json.NewDecoder(resp.Body).Decode(&facts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1 (unbound rows excluded)", len(facts))
	}
	if facts[0].ID != "ses_one" {
		t.Errorf("ID = %q, want ses_one", facts[0].ID)
	}
}

func TestHandleSessionsEmptyBeforeFirstSnapshot(t *testing.T) {
	_, _, ts := newTestServer(t, nil, "")

	resp, err := http.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var facts []*session.SessionFact
	if err := json.NewDecoder(resp.Body).Decode(&facts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("got %d facts before first snapshot, want 0", len(facts))
	}
}

func TestHandleSnapshotRequiresAuth(t *testing.T) {
	_, store, ts := newTestServer(t, nil, "secret")
	store.Publish(testSnapshot())

	resp, err := http.Get(ts.URL + "/api/snapshot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d without token, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/snapshot", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get with token: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d with token, want 200", resp.StatusCode)
	}
}

func TestHandleSnapshotAppliesPrivacyFilter(t *testing.T) {
	privacy := &session.PrivacyFilter{MaskPIDs: true, MaskSessionIDs: true}
	_, store, ts := newTestServer(t, privacy, "")
	store.Publish(testSnapshot())

	resp, err := http.Get(ts.URL + "/api/snapshot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var snap session.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(snap.Rows))
	}
	if snap.Rows[0].Process.PID != 0 {
		t.Errorf("PID = %d, want masked to 0", snap.Rows[0].Process.PID)
	}
	if snap.Rows[0].Session.ID == "ses_one" {
		t.Error("session id not masked")
	}

	// The store's own snapshot must stay unmasked.
	if store.Current().Rows[0].Process.PID != 41234 {
		t.Error("privacy filter mutated the stored snapshot")
	}
}

func TestHandleHealthz(t *testing.T) {
	_, store, ts := newTestServer(t, nil, "secret")
	store.Publish(testSnapshot())

	// No token on purpose: health checks must work unauthenticated.
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var status struct {
		Status    string `json:"status"`
		DBPresent bool   `json:"dbPresent"`
		Rows      int    `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ok" || !status.DBPresent || status.Rows != 2 {
		t.Errorf("healthz = %+v", status)
	}
}

func TestHandleFocusRejectsWrongMethod(t *testing.T) {
	_, store, ts := newTestServer(t, nil, "")
	store.Publish(testSnapshot())

	resp, err := http.Get(ts.URL + "/api/sessions/ses_one/focus")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d for GET focus, want 405", resp.StatusCode)
	}
}

func TestHandleFocusUnknownSession(t *testing.T) {
	_, store, ts := newTestServer(t, nil, "")
	store.Publish(testSnapshot())

	resp, err := http.Post(ts.URL+"/api/sessions/ses_ghost/focus", "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d for unknown session, want 404", resp.StatusCode)
	}
}

func TestHandleFocusSessionWithoutTerminal(t *testing.T) {
	_, store, ts := newTestServer(t, nil, "")
	snap := testSnapshot()
	snap.Rows[0].Process.TTY = ""
	store.Publish(snap)

	resp, err := http.Post(ts.URL+"/api/sessions/ses_one/focus", "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d for terminal-less session, want 409", resp.StatusCode)
	}
}
