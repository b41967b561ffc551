// Package ws is the standalone relay: a websocket hub that rooms peers by
// session ID and forwards opaque replication frames. Like the Nakama port
// it never simulates a game; the hosting peer does.
package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Message is the relay-level wire format. Frame payloads stay opaque.
type Message struct {
	Type    string          `json:"type"` // create_room, join_room, frame, ping
	Room    string          `json:"room,omitempty"`
	To      string          `json:"to,omitempty"` // "host", "*" or a peer ID
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ToBroadcast addresses a frame to every other room member.
const ToBroadcast = "*"

// ToHost addresses a frame to the room's hosting peer.
const ToHost = "host"

// room is one session's membership; the host sits at index zero until a
// leave promotes the next member.
type room struct {
	id      string
	host    *Client
	members []*Client
}

type clientMessage struct {
	client  *Client
	message Message
}

// Hub manages active connections and rooms. All room state is touched only
// from the Run loop.
type Hub struct {
	rooms          map[string]*room
	clientToRoom   map[*Client]*room
	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client
	log            *logrus.Logger
}

// NewHub creates an empty relay hub.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		rooms:          make(map[string]*room),
		clientToRoom:   make(map[*Client]*room),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		log:            log,
	}
}

// Run is the hub's main loop; start it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.log.WithField("peer", client.ID).Info("client connected")

		case client := <-h.unregister:
			h.dropClient(client)

		case cm := <-h.processMessage:
			h.handleMessage(cm.client, cm.message)
		}
	}
}

func (h *Hub) handleMessage(client *Client, msg Message) {
	switch msg.Type {
	case "create_room":
		h.handleCreateRoom(client)
	case "join_room":
		h.handleJoinRoom(client, msg.Room)
	case "frame":
		h.handleFrame(client, msg)
	case "ping":
		h.reply(client, Message{Type: "pong"})
	default:
		h.log.WithFields(logrus.Fields{"peer": client.ID, "type": msg.Type}).Warn("unknown message type")
		h.reply(client, Message{Type: "error", Payload: errPayload("unknown message type")})
	}
}

// handleCreateRoom opens a room keyed by a fresh session ID; the creator
// hosts it.
func (h *Hub) handleCreateRoom(client *Client) {
	if h.clientToRoom[client] != nil {
		h.reply(client, Message{Type: "error", Payload: errPayload("already in a room")})
		return
	}
	r := &room{id: uuid.NewString(), host: client, members: []*Client{client}}
	h.rooms[r.id] = r
	h.clientToRoom[client] = r
	h.log.WithFields(logrus.Fields{"room": r.id, "host": client.ID}).Info("room created")

	h.reply(client, Message{Type: "room_created", Room: r.id, To: client.ID})
	h.broadcastRoster(r)
}

func (h *Hub) handleJoinRoom(client *Client, roomID string) {
	if h.clientToRoom[client] != nil {
		h.reply(client, Message{Type: "error", Payload: errPayload("already in a room")})
		return
	}
	r, ok := h.rooms[roomID]
	if !ok {
		h.reply(client, Message{Type: "error", Payload: errPayload("room not found")})
		return
	}
	r.members = append(r.members, client)
	h.clientToRoom[client] = r
	h.log.WithFields(logrus.Fields{"room": r.id, "peer": client.ID}).Info("peer joined room")

	h.reply(client, Message{Type: "room_joined", Room: r.id, To: client.ID})
	h.broadcastRoster(r)
}

// handleFrame routes one opaque frame by its address: the host, everyone
// else, or a single peer.
func (h *Hub) handleFrame(client *Client, msg Message) {
	r := h.clientToRoom[client]
	if r == nil {
		h.reply(client, Message{Type: "error", Payload: errPayload("not in a room")})
		return
	}
	out := Message{Type: "frame", Room: r.id, Payload: msg.Payload}

	switch msg.To {
	case ToHost:
		h.deliver(r.host, out)
	case ToBroadcast, "":
		for _, m := range r.members {
			if m != client {
				h.deliver(m, out)
			}
		}
	default:
		for _, m := range r.members {
			if m.ID == msg.To {
				h.deliver(m, out)
				return
			}
		}
		h.log.WithFields(logrus.Fields{"room": r.id, "to": msg.To}).Warn("directed frame to unknown peer")
	}
}

// dropClient removes a connection from its room, promoting a new host or
// deleting the room when it empties.
func (h *Hub) dropClient(client *Client) {
	r := h.clientToRoom[client]
	delete(h.clientToRoom, client)
	if client.send != nil {
		close(client.send)
		client.send = nil
	}
	if r == nil {
		return
	}

	kept := r.members[:0]
	for _, m := range r.members {
		if m != client {
			kept = append(kept, m)
		}
	}
	r.members = kept

	if len(r.members) == 0 {
		delete(h.rooms, r.id)
		h.log.WithField("room", r.id).Info("room deleted")
		return
	}
	if r.host == client {
		r.host = r.members[0]
		h.log.WithFields(logrus.Fields{"room": r.id, "host": r.host.ID}).Info("host reassigned")
	}
	h.broadcastRoster(r)
}

// rosterPayload mirrors the Nakama port's roster event.
type rosterPayload struct {
	Peers []string `json:"peers"`
	Host  string   `json:"host"`
}

func (h *Hub) broadcastRoster(r *room) {
	payload, _ := json.Marshal(rosterPayload{Peers: peerIDs(r.members), Host: r.host.ID})
	for _, m := range r.members {
		h.deliver(m, Message{Type: "roster", Room: r.id, Payload: payload})
	}
}

func peerIDs(members []*Client) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

func (h *Hub) reply(client *Client, msg Message) {
	h.deliver(client, msg)
}

// deliver marshals and queues a message without blocking the hub loop; a
// stuck client is dropped instead.
func (h *Hub) deliver(client *Client, msg Message) {
	if client == nil || client.send == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("marshal outbound message")
		return
	}
	select {
	case client.send <- data:
	default:
		h.log.WithField("peer", client.ID).Warn("send queue full, dropping client")
		h.dropClient(client)
	}
}

func errPayload(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"message": msg})
	return b
}
