// Package session ties one table together: the roster, the host flag, the
// game engine and the replication channel. It owns no transport and no UI;
// tests drive it with an in-memory channel.
package session

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cardroom/internal/config"
	"cardroom/internal/domain"
	"cardroom/internal/domain/bacay"
	"cardroom/internal/domain/blackjack"
	"cardroom/internal/domain/fivedraw"
	"cardroom/internal/domain/gin"
	"cardroom/internal/domain/holdem"
	"cardroom/internal/domain/tienlen"
	"cardroom/internal/replication"
)

// PeerHost is the channel address of the session's host peer.
const PeerHost = "host"

var (
	ErrNotHost     = errors.New("only the host mutates the table")
	ErrUnknownGame = errors.New("unknown game")
)

// GameEngine is the full surface a session drives: the replicated engine
// plus seating and round control.
type GameEngine interface {
	replication.Engine
	AddPlayer(id, name string) error
	RemovePlayer(id string) error
	StartRound() error
}

// NewEngine builds a configured engine for the named game.
func NewEngine(game string, rng *rand.Rand) (GameEngine, error) {
	switch game {
	case "tienlen":
		e, err := tienlen.New(tienlen.RulesByName(config.TienLenVariant()), config.BaseBet(""), rng)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "bacay":
		e, err := bacay.New(rng)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "fivedraw":
		e, err := fivedraw.New(config.FiveDrawAnte(), rng)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "holdem":
		stakes := config.HoldemStakes()
		e, err := holdem.New(stakes.SmallBlind, stakes.BigBlind, stakes.BuyIn, rng)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "blackjack":
		e, err := blackjack.New(rng)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "gin":
		e, err := gin.New(rng)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}
}

// Member is one roster entry.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is one peer's view of a table.
type Session struct {
	id     string
	game   string
	host   bool
	roster []Member
	engine GameEngine
	ch     replication.Channel
	log    *logrus.Entry

	hostRepl *replication.Host
	mirror   *replication.Mirror
}

// Host creates the authoritative side of a fresh table.
func Host(game string, engine GameEngine, ch replication.Channel, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		game:     game,
		host:     true,
		engine:   engine,
		ch:       ch,
		log:      log.WithFields(logrus.Fields{"session": id, "game": game}),
		hostRepl: replication.NewHost(id, game, engine, ch, log),
	}
}

// Join creates the mirror side for an existing table.
func Join(sessionID, game string, engine GameEngine, ch replication.Channel, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		id:     sessionID,
		game:   game,
		engine: engine,
		ch:     ch,
		log:    log.WithFields(logrus.Fields{"session": sessionID, "game": game}),
		mirror: replication.NewMirror(sessionID, game, engine, log),
	}
}

// ID is the table's session identifier.
func (s *Session) ID() string { return s.id }

// Game names the engine this table runs.
func (s *Session) Game() string { return s.game }

// IsHost reports whether this peer owns the authoritative engine.
func (s *Session) IsHost() bool { return s.host }

// Roster lists the seated members in join order.
func (s *Session) Roster() []Member { return s.roster }

// Engine exposes the local engine for rendering.
func (s *Session) Engine() GameEngine { return s.engine }

// Seat adds a member to the table and pushes the new state to every peer.
// Host only; mirrors learn the roster from snapshots.
func (s *Session) Seat(id, name string) error {
	if !s.host {
		return ErrNotHost
	}
	if err := s.engine.AddPlayer(id, name); err != nil {
		return err
	}
	s.roster = append(s.roster, Member{ID: id, Name: name})
	s.log.WithField("player", id).Info("seated player")
	return s.hostRepl.BroadcastSnapshot()
}

// Unseat removes a member and pushes the new state.
func (s *Session) Unseat(id string) error {
	if !s.host {
		return ErrNotHost
	}
	if err := s.engine.RemovePlayer(id); err != nil {
		return err
	}
	for i, m := range s.roster {
		if m.ID == id {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			break
		}
	}
	s.log.WithField("player", id).Info("unseated player")
	return s.hostRepl.BroadcastSnapshot()
}

// Start begins a round and pushes the dealt state.
func (s *Session) Start() error {
	if !s.host {
		return ErrNotHost
	}
	if err := s.engine.StartRound(); err != nil {
		return err
	}
	s.log.Info("round started")
	return s.hostRepl.BroadcastSnapshot()
}

// Submit routes a local intent. The host applies it directly, returning
// rule violations to the caller; a mirror encodes it onto the channel for
// the host peer.
func (s *Session) Submit(in domain.Intent) error {
	if s.host {
		if err := s.engine.Apply(in); err != nil {
			return err
		}
		return s.hostRepl.BroadcastSnapshot()
	}
	frame, err := replication.EncodeIntent(s.id, s.game, in)
	if err != nil {
		return err
	}
	return s.ch.Send(PeerHost, frame)
}

// HandleFrame feeds one inbound channel frame to the right replicator.
func (s *Session) HandleFrame(peer string, data []byte) error {
	if s.host {
		return s.hostRepl.HandleFrame(peer, data)
	}
	return s.mirror.HandleFrame(data)
}
