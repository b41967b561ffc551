package ws

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The relay carries no credentials; peers are anonymous session members.
	CheckOrigin: func(*http.Request) bool { return true },
}

const sendQueueSize = 64

// Client is a single websocket connection attached to the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ID   string
}

// newClient wraps a connection. The ID is fixed here, before any goroutine
// can read it.
func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, sendQueueSize), ID: uuid.NewString()}
}

// ServeWS upgrades an HTTP request and registers the connection.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := newClient(hub, conn)
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump decodes inbound relay messages and hands them to the hub loop.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithField("peer", c.ID).WithError(err).Warn("unexpected close")
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.log.WithField("peer", c.ID).WithError(err).Warn("malformed message")
			continue
		}
		c.hub.processMessage <- clientMessage{client: c, message: msg}
	}
}

// writePump drains the send queue onto the socket.
func (c *Client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.hub.log.WithField("peer", c.ID).WithError(err).Warn("write failed")
			return
		}
	}
}
