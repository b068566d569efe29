package session

import (
	"encoding/json"
	"time"
)

// Status is the inferred activity of one monitored process/session pair.
type Status int

const (
	Unknown Status = iota
	Generating
	ToolUse
	Busy
	Thinking
	Queued
	Idle
	Stale
	Truncated
)

var statusNames = map[Status]string{
	Unknown:    "unknown",
	Generating: "generating",
	ToolUse:    "tool use",
	Busy:       "busy",
	Thinking:   "thinking",
	Queued:     "queued",
	Idle:       "idle",
	Stale:      "stale",
	Truncated:  "truncated",
}

var statusFromName = map[string]Status{
	"unknown":    Unknown,
	"generating": Generating,
	"tool use":   ToolUse,
	"busy":       Busy,
	"thinking":   Thinking,
	"queued":     Queued,
	"idle":       Idle,
	"stale":      Stale,
	"truncated":  Truncated,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// ProcessFact is everything the OS reports about one running opencode
// process: the ps columns, plus cwd and log path resolved from open file
// handles. StartTimeMS is decoded from the log filename and is zero when
// no log handle was found.
type ProcessFact struct {
	PID               int     `json:"pid"`
	CPUPercent        float64 `json:"cpuPercent"`
	RSSBytes          int64   `json:"rssBytes"`
	TTY               string  `json:"tty,omitempty"`
	ElapsedRaw        string  `json:"elapsed,omitempty"`
	Cmdline           string  `json:"cmdline"`
	Cwd               string  `json:"cwd,omitempty"`
	LogPath           string  `json:"logPath,omitempty"`
	StartTimeMS       int64   `json:"startTimeMs,omitempty"`
	ExplicitSessionID string  `json:"explicitSessionId,omitempty"`
	IsToolProcess     bool    `json:"isToolProcess,omitempty"`
}

// SessionFact is everything the host database reports about one session.
// Facts are recomputed fresh each refresh; nothing here is cached state.
type SessionFact struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Directory       string     `json:"directory"`
	ProjectID       string     `json:"projectId,omitempty"`
	Model           string     `json:"model,omitempty"`
	Agent           string     `json:"agent,omitempty"`
	MessageCount    int        `json:"messageCount"`
	ContextTokens   int64      `json:"contextTokens"`
	OutputTokens    int64      `json:"outputTokens"`
	CacheReadTokens int64      `json:"cacheReadTokens"`
	Cost            float64    `json:"cost"`
	LastRole        string     `json:"lastRole,omitempty"`
	LastFinish      string     `json:"lastFinish,omitempty"`
	LastMessageMS   int64      `json:"lastMessageMs,omitempty"`
	TimeCreatedMS   int64      `json:"timeCreatedMs,omitempty"`
	TimeUpdatedMS   int64      `json:"timeUpdatedMs,omitempty"`
	RoundStartMS    int64      `json:"roundStartMs,omitempty"`
	LastOutputLine  string     `json:"lastOutputLine,omitempty"`
	Todos           []TodoItem `json:"todos,omitempty"`
	Version         string     `json:"version,omitempty"`
	Interactive     bool       `json:"interactive"`
}

// Clone returns a deep copy of the SessionFact, duplicating slice fields so
// the copy can be mutated independently of the original.
func (f *SessionFact) Clone() *SessionFact {
	c := *f
	if len(f.Todos) > 0 {
		c.Todos = make([]TodoItem, len(f.Todos))
		copy(c.Todos, f.Todos)
	}
	return &c
}

type TodoItem struct {
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// Row is one correlated entry in a snapshot: a process, the session bound
// to it (nil when no tier matched), and the status inferred from both.
type Row struct {
	Process ProcessFact  `json:"process"`
	Session *SessionFact `json:"session,omitempty"`
	Status  Status       `json:"status"`
}

func (r Row) HasSession() bool {
	return r.Session != nil
}

func (r Row) clone() Row {
	if r.Session != nil {
		r.Session = r.Session.Clone()
	}
	return r
}

// Aggregate holds database-wide counts and token sums, computed either for
// sessions updated today or for the whole database.
type Aggregate struct {
	Sessions      int   `json:"sessions"`
	Messages      int   `json:"messages"`
	ContextTokens int64 `json:"contextTokens"`
	OutputTokens  int64 `json:"outputTokens"`
}

// MCPServer is one entry of the host config's mcp object. Enabled defaults
// to true when the config omits the field.
type MCPServer struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Enabled bool   `json:"enabled"`
}

// SourceStatus reports the health of one data source (the prober, lsof,
// the database) as of the snapshot it rides in.
type SourceStatus struct {
	Source   string `json:"source"`
	OK       bool   `json:"ok"`
	Failures int    `json:"failures,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Snapshot is one immutable tick of the pipeline: the correlated rows plus
// the aggregates, MCP config, and source health sampled on the same tick.
// Publishers hand a Snapshot to the store and never touch it again; readers
// treat it as read-only and Clone before mutating.
type Snapshot struct {
	TakenAt   time.Time      `json:"takenAt"`
	Rows      []Row          `json:"rows"`
	Today     Aggregate      `json:"today"`
	Global    Aggregate      `json:"global"`
	MCP       []MCPServer    `json:"mcp,omitempty"`
	Health    []SourceStatus `json:"health,omitempty"`
	DBPresent bool           `json:"dbPresent"`
}

// Clone returns a deep copy of the Snapshot, duplicating row, todo, and
// config slices so the copy can be mutated independently of the original.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	if len(s.Rows) > 0 {
		c.Rows = make([]Row, len(s.Rows))
		for i, r := range s.Rows {
			c.Rows[i] = r.clone()
		}
	}
	if len(s.MCP) > 0 {
		c.MCP = make([]MCPServer, len(s.MCP))
		copy(c.MCP, s.MCP)
	}
	if len(s.Health) > 0 {
		c.Health = make([]SourceStatus, len(s.Health))
		copy(c.Health, s.Health)
	}
	return &c
}

// BoundSessionIDs returns the set of session ids bound in this snapshot.
// Correlation guarantees each id appears at most once.
func (s *Snapshot) BoundSessionIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Rows))
	for _, r := range s.Rows {
		if r.Session != nil {
			ids[r.Session.ID] = true
		}
	}
	return ids
}
