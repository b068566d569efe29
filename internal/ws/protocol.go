package ws

import (
	"github.com/opencode-htop/octop/internal/session"
)

type MessageType string

const (
	MsgHello    MessageType = "hello"
	MsgSnapshot MessageType = "snapshot"
	MsgError    MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// HelloPayload is sent once per connection so attached clients can render
// the header before the first snapshot lands.
type HelloPayload struct {
	ServerVersion     string `json:"serverVersion"`
	Source            string `json:"source"`
	RefreshIntervalMS int    `json:"refreshIntervalMs"`
}

// SnapshotPayload carries one full monitor snapshot. Deltas are not worth
// the bookkeeping at a 2s cadence with a few dozen rows.
type SnapshotPayload struct {
	Snapshot *session.Snapshot `json:"snapshot"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
