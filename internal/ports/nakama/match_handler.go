// Package nakama adapts the card room to Nakama's authoritative match
// runtime. The match handler never simulates a game: it seats peers,
// designates the host and shuttles opaque frames between the host's
// engine and everyone else's mirrors.
package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the relay-side state: who sits where and who hosts.
type MatchState struct {
	Seats      [maxSeats]string            `json:"seats"` // user IDs, "" = empty
	Names      map[string]string           `json:"names"` // userID -> display name
	HostUserID string                      `json:"host_user_id"`
	Game       string                      `json:"game"`
	Presences  map[string]runtime.Presence `json:"-"`
}

// OpenSeats counts empty seats.
func (ms *MatchState) OpenSeats() int {
	n := 0
	for _, s := range ms.Seats {
		if s == "" {
			n++
		}
	}
	return n
}

// lowestAvailableSeat returns the first empty seat index.
func lowestAvailableSeat(seats *[maxSeats]string) int {
	for i := range seats {
		if seats[i] == "" {
			return i
		}
	}
	return -1
}

// nextHost picks the occupant of the lowest seat, or "" for an empty room.
func nextHost(seats *[maxSeats]string) string {
	for _, s := range seats {
		if s != "" {
			return s
		}
	}
	return ""
}

// Label is advertised for quick-match queries.
type Label struct {
	Open int    `json:"open"`
	Game string `json:"game"`
}

func buildLabel(ms *MatchState) string {
	b, _ := json.Marshal(Label{Open: ms.OpenSeats(), Game: ms.Game})
	return string(b)
}

// rosterEvent is broadcast whenever seating or hosting changes.
type rosterEvent struct {
	Seats []rosterSeat `json:"seats"`
	Host  string       `json:"host"`
}

type rosterSeat struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func buildRoster(ms *MatchState) []byte {
	evt := rosterEvent{Host: ms.HostUserID}
	for i, uid := range ms.Seats {
		if uid != "" {
			evt.Seats = append(evt.Seats, rosterSeat{Seat: i + 1, UserID: uid, Name: ms.Names[uid]})
		}
	}
	b, _ := json.Marshal(evt)
	return b
}

// directedFrame wraps a host frame addressed to a single peer.
type directedFrame struct {
	To    string          `json:"to"`
	Frame json.RawMessage `json:"frame"`
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit creates an empty relay room; params may carry the game name.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	state := &MatchState{
		Names:     make(map[string]string),
		Presences: make(map[string]runtime.Presence),
		Game:      "tienlen",
	}
	if g, ok := params["game"].(string); ok && g != "" {
		state.Game = g
	}

	tickRate := 1
	return state, tickRate, buildLabel(state)
}

// MatchJoinAttempt admits peers while a seat is free and allows rejoins.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	ms, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	for _, uid := range ms.Seats {
		if uid == presence.GetUserId() {
			return ms, true, "" // rejoin
		}
	}
	if ms.OpenSeats() <= 0 {
		return ms, false, "match_full"
	}
	return ms, true, ""
}

// MatchJoin seats new peers; the first occupant hosts the session.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		ms.Presences[uid] = p

		already := false
		for _, seated := range ms.Seats {
			if seated == uid {
				already = true
				break
			}
		}
		if already {
			continue // rejoin keeps the seat
		}

		seat := lowestAvailableSeat(&ms.Seats)
		if seat == -1 {
			logger.Warn("MatchJoin: no seat for %s", uid)
			continue
		}
		ms.Seats[seat] = uid
		ms.Names[uid] = p.GetUsername()
		if ms.HostUserID == "" {
			ms.HostUserID = uid
			logger.Info("MatchJoin: %s hosts the session", uid)
		}
	}

	if err := dispatcher.BroadcastMessage(OpRoster, buildRoster(ms), nil, nil, true); err != nil {
		logger.Error("MatchJoin: roster broadcast failed: %v", err)
	}
	if err := dispatcher.MatchLabelUpdate(buildLabel(ms)); err != nil {
		logger.Error("MatchJoin: label update failed: %v", err)
	}
	return ms
}

// MatchLeave frees seats and promotes a new host when the host leaves. The
// promoted peer already mirrors the latest snapshot, so it can take over
// simulation without a handoff protocol.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		delete(ms.Presences, uid)
		delete(ms.Names, uid)
		for i, seated := range ms.Seats {
			if seated == uid {
				ms.Seats[i] = ""
			}
		}
		if ms.HostUserID == uid {
			ms.HostUserID = nextHost(&ms.Seats)
			if ms.HostUserID != "" {
				logger.Info("MatchLeave: %s takes over hosting", ms.HostUserID)
			}
		}
	}

	if ms.HostUserID == "" {
		logger.Info("MatchLeave: room empty, terminating")
		return nil
	}

	if err := dispatcher.BroadcastMessage(OpRoster, buildRoster(ms), nil, nil, true); err != nil {
		logger.Error("MatchLeave: roster broadcast failed: %v", err)
	}
	if err := dispatcher.MatchLabelUpdate(buildLabel(ms)); err != nil {
		logger.Error("MatchLeave: label update failed: %v", err)
	}
	return ms
}

// MatchLoop forwards frames: intents go to the host alone, snapshots fan
// out to the room, rejects reach only the addressed peer.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpIntent:
			host, ok := ms.Presences[ms.HostUserID]
			if !ok {
				logger.Warn("MatchLoop: intent with no host present")
				continue
			}
			if err := dispatcher.BroadcastMessage(OpIntent, msg.GetData(), []runtime.Presence{host}, msg, true); err != nil {
				logger.Error("MatchLoop: intent forward failed: %v", err)
			}

		case OpSnapshot:
			if msg.GetUserId() != ms.HostUserID {
				logger.Warn("MatchLoop: snapshot from non-host %s dropped", msg.GetUserId())
				continue
			}
			if err := dispatcher.BroadcastMessage(OpSnapshot, msg.GetData(), nil, msg, true); err != nil {
				logger.Error("MatchLoop: snapshot broadcast failed: %v", err)
			}

		case OpReject:
			if msg.GetUserId() != ms.HostUserID {
				logger.Warn("MatchLoop: reject from non-host %s dropped", msg.GetUserId())
				continue
			}
			var df directedFrame
			if err := json.Unmarshal(msg.GetData(), &df); err != nil {
				logger.Error("MatchLoop: malformed reject frame: %v", err)
				continue
			}
			target, ok := ms.Presences[df.To]
			if !ok {
				continue // peer already gone
			}
			if err := dispatcher.BroadcastMessage(OpReject, df.Frame, []runtime.Presence{target}, msg, true); err != nil {
				logger.Error("MatchLoop: reject forward failed: %v", err)
			}
		}
	}
	return ms
}

// MatchTerminate runs on match shutdown; the relay holds nothing to flush.
func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	return state
}

// MatchSignal handles out-of-band signals; unused by the relay.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
