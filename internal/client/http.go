package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

// HTTPClient talks to the REST side of a serving octop instance.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchSnapshot retrieves the server's current snapshot, or nil if the
// server has not produced one yet.
func (c *HTTPClient) FetchSnapshot() (*session.Snapshot, error) {
	data, err := c.get("/api/snapshot")
	if err != nil {
		return nil, err
	}
	if body := strings.TrimSpace(string(data)); body == "" || body == "null" {
		return nil, nil
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// FetchSessions retrieves the bound session facts.
func (c *HTTPClient) FetchSessions() ([]*session.SessionFact, error) {
	data, err := c.get("/api/sessions")
	if err != nil {
		return nil, err
	}
	var facts []*session.SessionFact
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return facts, nil
}

// FocusSession asks the server to focus the tmux pane hosting a session.
func (c *HTTPClient) FocusSession(sessionID string) error {
	return c.post("/api/sessions/" + sessionID + "/focus")
}

func (c *HTTPClient) get(path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *HTTPClient) post(path string) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
