// Package client provides the WebSocket and HTTP clients used by attach
// mode to follow a remote octop serve instance.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/ws"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// WSClient manages the WebSocket connection to a serving octop.
type WSClient struct {
	url   string
	token string

	mu      sync.Mutex
	writeMu sync.Mutex // serialises conn writes (pings)
	conn    *websocket.Conn
	pingCtx context.CancelFunc
}

func NewWSClient(url, token string) *WSClient {
	return &WSClient{url: url, token: token}
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent when the WebSocket connects.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// HelloMsg carries the server's greeting.
type HelloMsg struct{ Payload ws.HelloPayload }

// SnapshotMsg delivers a full monitor snapshot.
type SnapshotMsg struct{ Snapshot *session.Snapshot }

// ErrorMsg wraps a server-side error.
type ErrorMsg struct{ Message string }

// Listen returns a command that dials until connected, backing off
// exponentially. The app restarts it after every DisconnectedMsg.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			header := http.Header{}
			if c.token != "" {
				header.Set("Authorization", "Bearer "+c.token)
			}
			conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
			if err != nil {
				log.Printf("[client] dial %s: %v (retry in %v)", c.url, err, delay)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				if delay *= 2; delay > reconnectMaxDelay {
					delay = reconnectMaxDelay
				}
				continue
			}

			// Swap in the new connection and restart the ping loop.
			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			return ConnectedMsg{}
		}
	}
}

// ReadLoop returns a command that blocks on the connection and delivers
// the next decodable message. Start it after ConnectedMsg and after every
// delivered message.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: fmt.Errorf("not connected")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				return DisconnectedMsg{Err: err}
			}

			var msg struct {
				Type    ws.MessageType  `json:"type"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if teaMsg := dispatch(msg.Type, msg.Payload); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			current := c.conn
			c.mu.Unlock()
			if current != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func dispatch(typ ws.MessageType, payload json.RawMessage) tea.Msg {
	switch typ {
	case ws.MsgHello:
		var p ws.HelloPayload
		if json.Unmarshal(payload, &p) == nil {
			return HelloMsg{Payload: p}
		}
	case ws.MsgSnapshot:
		var p ws.SnapshotPayload
		if json.Unmarshal(payload, &p) == nil && p.Snapshot != nil {
			return SnapshotMsg{Snapshot: p.Snapshot}
		}
	case ws.MsgError:
		var p ws.ErrorPayload
		if json.Unmarshal(payload, &p) == nil {
			return ErrorMsg{Message: p.Message}
		}
	}
	return nil
}
