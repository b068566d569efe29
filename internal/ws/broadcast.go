package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/opencode-htop/octop/internal/session"
)

type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// trySend queues data without blocking. Reports false when the buffer is
// full; a closed client swallows the message, so a broadcast racing a
// disconnect never hits a closed channel.
func (c *client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Broadcaster fans monitor snapshots out to websocket clients. The
// privacy filter runs once per publish, not per client, so every client
// sees the same masked view.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	store   *session.Store
	privacy *session.PrivacyFilter
	hello   HelloPayload
}

func NewBroadcaster(store *session.Store, privacy *session.PrivacyFilter, hello HelloPayload) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
		store:   store,
		privacy: privacy,
		hello:   hello,
	}
}

// Run relays every store publish to the connected clients until ctx is
// done. The subscription channel is latest-wins, so a burst of publishes
// collapses to the newest snapshot.
func (b *Broadcaster) Run(ctx context.Context) {
	sub := b.store.Subscribe()
	defer b.store.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub:
			if !ok {
				return
			}
			b.broadcast(WSMessage{
				Type:    MsgSnapshot,
				Payload: SnapshotPayload{Snapshot: b.filtered(snap)},
			})
		}
	}
}

// filtered applies the privacy mask. Safe on nil filters and snapshots.
func (b *Broadcaster) filtered(snap *session.Snapshot) *session.Snapshot {
	if b.privacy == nil {
		return snap
	}
	return b.privacy.Apply(snap)
}

// AddClient registers the connection and primes it with a hello and the
// current snapshot so it never waits a full interval for first paint.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	b.sendTo(c, WSMessage{Type: MsgHello, Payload: b.hello})
	if snap := b.store.Current(); snap != nil {
		b.sendTo(c, WSMessage{
			Type:    MsgSnapshot,
			Payload: SnapshotPayload{Snapshot: b.filtered(snap)},
		})
	}
	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) sendTo(c *client, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ws] marshal: %v", err)
		return
	}
	c.trySend(data)
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ws] marshal: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(data) {
			// Client can't keep up; drop it rather than buffer forever.
			log.Printf("[ws] client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
