// Package replication keeps every peer's copy of a game in sync with the
// host. The host is the only writer: it validates intents against the live
// engine and broadcasts whole snapshots; mirrors replace their state
// wholesale and never patch.
package replication

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"cardroom/internal/domain"
)

// Engine is the game-side surface the replicator drives. Every game engine
// in this module satisfies it.
type Engine interface {
	Apply(domain.Intent) error
	Snapshot() ([]byte, error)
	Restore([]byte) error
}

// Channel moves frames between the host and its mirrors. Implementations
// decide the transport; the replicator only sees opaque frame bytes.
type Channel interface {
	Broadcast(data []byte) error
	Send(peer string, data []byte) error
}

// Kind discriminates wire frames.
type Kind string

const (
	KindIntent   Kind = "intent"
	KindSnapshot Kind = "snapshot"
	KindReject   Kind = "reject"
)

// Envelope is the single frame format on the channel.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Session string          `json:"session"`
	Game    string          `json:"game"`
	Intent  *domain.Intent  `json:"intent,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// EncodeIntent wraps an intent for submission to the session's host.
func EncodeIntent(session, game string, in domain.Intent) ([]byte, error) {
	return json.Marshal(Envelope{Kind: KindIntent, Session: session, Game: game, Intent: &in})
}

// Host owns the authoritative engine for one session.
type Host struct {
	session string
	game    string
	engine  Engine
	ch      Channel
	log     *logrus.Entry
}

// NewHost wires the authoritative engine to a channel.
func NewHost(session, game string, engine Engine, ch Channel, log *logrus.Logger) *Host {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Host{
		session: session,
		game:    game,
		engine:  engine,
		ch:      ch,
		log:     log.WithFields(logrus.Fields{"session": session, "game": game}),
	}
}

// HandleFrame processes one frame arriving from a peer. Intents for this
// session are applied to the engine; a rule violation is answered to the
// submitting peer alone and the host keeps running.
func (h *Host) HandleFrame(peer string, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("host frame: %w", err)
	}
	if env.Session != h.session {
		h.log.WithField("their_session", env.Session).Debug("dropping foreign frame")
		return nil
	}
	if env.Kind != KindIntent || env.Intent == nil {
		return nil // hosts only consume intents
	}
	return h.HandleIntent(peer, *env.Intent)
}

// HandleIntent validates and applies one intent, then broadcasts the new
// snapshot. Rejections go back to the submitter only.
func (h *Host) HandleIntent(peer string, in domain.Intent) error {
	if err := h.engine.Apply(in); err != nil {
		h.log.WithFields(logrus.Fields{
			"peer":   peer,
			"intent": in.Type,
			"actor":  in.Actor,
		}).WithError(err).Info("intent rejected")
		return h.reject(peer, in, err)
	}
	h.log.WithFields(logrus.Fields{"intent": in.Type, "actor": in.Actor}).Debug("intent applied")
	return h.BroadcastSnapshot()
}

func (h *Host) reject(peer string, in domain.Intent, cause error) error {
	data, err := json.Marshal(Envelope{
		Kind:    KindReject,
		Session: h.session,
		Game:    h.game,
		Intent:  &in,
		Error:   cause.Error(),
	})
	if err != nil {
		return fmt.Errorf("host reject: %w", err)
	}
	return h.ch.Send(peer, data)
}

// BroadcastSnapshot serializes the engine and pushes the whole state to
// every peer. Callers use it after out-of-band mutations such as seating.
func (h *Host) BroadcastSnapshot() error {
	state, err := h.engine.Snapshot()
	if err != nil {
		return fmt.Errorf("host snapshot: %w", err)
	}
	data, err := json.Marshal(Envelope{
		Kind:    KindSnapshot,
		Session: h.session,
		Game:    h.game,
		State:   state,
	})
	if err != nil {
		return fmt.Errorf("host snapshot: %w", err)
	}
	return h.ch.Broadcast(data)
}

// Mirror tracks a host's engine by adopting its snapshots.
type Mirror struct {
	session string
	game    string
	engine  Engine
	log     *logrus.Entry

	// OnReject, when set, observes rejections addressed to this peer.
	OnReject func(in *domain.Intent, reason string)
}

// NewMirror wires a follower engine to the session's snapshot stream.
func NewMirror(session, game string, engine Engine, log *logrus.Logger) *Mirror {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Mirror{
		session: session,
		game:    game,
		engine:  engine,
		log:     log.WithFields(logrus.Fields{"session": session, "game": game}),
	}
}

// HandleFrame consumes one frame from the channel. Snapshots replace the
// local state wholesale, making replay of the same frame idempotent;
// frames from other sessions are discarded.
func (m *Mirror) HandleFrame(data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("mirror frame: %w", err)
	}
	if env.Session != m.session {
		m.log.WithField("their_session", env.Session).Debug("dropping foreign frame")
		return nil
	}
	switch env.Kind {
	case KindSnapshot:
		if err := m.engine.Restore(env.State); err != nil {
			return fmt.Errorf("mirror restore: %w", err)
		}
		return nil
	case KindReject:
		m.log.WithField("reason", env.Error).Info("host rejected our intent")
		if m.OnReject != nil {
			m.OnReject(env.Intent, env.Error)
		}
		return nil
	default:
		return nil // intents are the host's concern
	}
}
