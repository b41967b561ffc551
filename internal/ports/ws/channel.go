package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Channel adapts a peer's relay connection to the replication channel
// surface. Hosts broadcast snapshots and direct rejects through it;
// mirrors send intents to the host address.
type Channel struct {
	room string

	mu   sync.Mutex // gorilla conns allow one concurrent writer
	conn *websocket.Conn
}

// NewChannel wraps an established relay connection for one room.
func NewChannel(conn *websocket.Conn, room string) *Channel {
	return &Channel{conn: conn, room: room}
}

// Broadcast sends a frame to every other room member.
func (c *Channel) Broadcast(frame []byte) error {
	return c.write(ToBroadcast, frame)
}

// Send directs a frame to one peer; use ToHost for the hosting peer.
func (c *Channel) Send(peer string, frame []byte) error {
	return c.write(peer, frame)
}

func (c *Channel) write(to string, frame []byte) error {
	data, err := json.Marshal(Message{Type: "frame", Room: c.room, To: to, Payload: frame})
	if err != nil {
		return fmt.Errorf("ws channel: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("ws channel: %w", err)
	}
	return nil
}
