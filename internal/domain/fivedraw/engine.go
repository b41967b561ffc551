// Package fivedraw implements the draw-poker variant played against a
// dealer seat: everyone antes, draws five cards, swaps up to four of them
// once, and shows down against the dealer for even money.
package fivedraw

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"cardroom/internal/domain"
	"cardroom/internal/domain/poker"
)

// Phase is the lifecycle stage of a round.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseDrawing Phase = "drawing"
	PhaseSettled Phase = "settled"
)

const (
	maxPlayers   = 5
	handSize     = 5
	maxDiscards  = 4
	worstCaseUse = maxPlayers * (handSize + maxDiscards)
)

var (
	ErrTooManyDiscards = errors.New("may discard at most four cards")
	ErrAlreadyDrew     = errors.New("discard phase already used")
)

// Player is one seat, dealer included.
type Player struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Hand   []domain.Card    `json:"hand"`
	Acted  bool             `json:"acted"`
	Result *poker.HandValue `json:"result,omitempty"`
}

// State is the replicated game state.
type State struct {
	Phase   Phase            `json:"phase"`
	Players []*Player        `json:"players"`
	Dealer  int              `json:"dealer"`
	Current int              `json:"current"`
	Ante    int64            `json:"ante"`
	Round   int              `json:"round"`
	Payouts map[string]int64 `json:"payouts,omitempty"`
}

// Engine drives the ante, the single draw pass and the dealer showdown.
type Engine struct {
	state State
	deck  *domain.Deck
}

// New constructs a waiting engine. rng may be nil.
func New(ante int64, rng *rand.Rand) (*Engine, error) {
	if ante <= 0 {
		return nil, fmt.Errorf("fivedraw: ante must be positive, got %d", ante)
	}
	deck := domain.NewDeck(1, rng)
	if err := deck.EnsureCapacity(worstCaseUse); err != nil {
		return nil, fmt.Errorf("fivedraw: %w", err)
	}
	return &Engine{state: State{Phase: PhaseWaiting, Ante: ante}, deck: deck}, nil
}

// AddPlayer seats a player while waiting.
func (e *Engine) AddPlayer(id, name string) error {
	if e.state.Phase != PhaseWaiting {
		return domain.ErrWrongPhase
	}
	if len(e.state.Players) >= maxPlayers {
		return domain.ErrTableFull
	}
	for _, p := range e.state.Players {
		if p.ID == id {
			return fmt.Errorf("player %s: already seated", id)
		}
	}
	e.state.Players = append(e.state.Players, &Player{ID: id, Name: name})
	return nil
}

// RemovePlayer unseats a player while waiting.
func (e *Engine) RemovePlayer(id string) error {
	if e.state.Phase != PhaseWaiting {
		return domain.ErrWrongPhase
	}
	for i, p := range e.state.Players {
		if p.ID == id {
			e.state.Players = append(e.state.Players[:i], e.state.Players[i+1:]...)
			if e.state.Dealer >= len(e.state.Players) {
				e.state.Dealer = 0
			}
			return nil
		}
	}
	return domain.ErrUnknownPlayer
}

// StartRound rotates the dealer, deals five cards per seat and opens the
// draw pass left of the dealer.
func (e *Engine) StartRound() error {
	if e.state.Phase == PhaseDrawing {
		return domain.ErrWrongPhase
	}
	if len(e.state.Players) < 2 {
		return domain.ErrTooFewPlayers
	}

	if e.state.Round > 0 {
		e.state.Dealer = (e.state.Dealer + 1) % len(e.state.Players)
	}
	e.state.Round++
	e.state.Payouts = nil

	e.deck.Reset()
	for _, p := range e.state.Players {
		p.Hand = e.deck.DealMany(handSize)
		if len(p.Hand) != handSize {
			return fmt.Errorf("fivedraw deal: %w", domain.ErrDeckTooSmall)
		}
		p.Acted = false
		p.Result = nil
	}

	e.state.Phase = PhaseDrawing
	e.state.Current = (e.state.Dealer + 1) % len(e.state.Players)
	return nil
}

// Discard swaps up to four cards for the acting player, once per round.
// An empty discard stands pat.
func (e *Engine) Discard(actor string, cards []domain.Card) error {
	if e.state.Phase != PhaseDrawing {
		return domain.ErrWrongPhase
	}
	idx := e.indexOf(actor)
	if idx == -1 {
		return domain.ErrUnknownPlayer
	}
	if idx != e.state.Current {
		return domain.ErrNotYourTurn
	}
	p := e.state.Players[idx]
	if p.Acted {
		return ErrAlreadyDrew
	}
	if len(cards) > maxDiscards {
		return ErrTooManyDiscards
	}
	if !domain.ContainsAll(p.Hand, cards) {
		return domain.ErrBadPayload
	}

	p.Hand = domain.RemoveCards(p.Hand, cards)
	replacement := e.deck.DealMany(len(cards))
	if len(replacement) != len(cards) {
		return fmt.Errorf("fivedraw redraw: %w", domain.ErrDeckTooSmall)
	}
	p.Hand = append(p.Hand, replacement...)
	p.Acted = true
	e.advance(idx)
	return nil
}

// advance moves to the next seat that has not drawn, dealer last, and shows
// down once the dealer has acted.
func (e *Engine) advance(from int) {
	n := len(e.state.Players)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if i == e.state.Dealer {
			continue
		}
		if !e.state.Players[i].Acted {
			e.state.Current = i
			return
		}
	}
	if !e.state.Players[e.state.Dealer].Acted {
		e.state.Current = e.state.Dealer
		return
	}
	e.showdown()
}

// showdown evaluates every hand and settles each non-dealer even money
// against the dealer's hand; pushes pay nothing.
func (e *Engine) showdown() {
	for _, p := range e.state.Players {
		hv := poker.EvaluateFive(p.Hand)
		p.Result = &hv
	}
	dealer := e.state.Players[e.state.Dealer]

	payouts := make(map[string]int64, len(e.state.Players))
	var dealerNet int64
	for i, p := range e.state.Players {
		if i == e.state.Dealer {
			continue
		}
		switch cmp := poker.Compare(*p.Result, *dealer.Result); {
		case cmp > 0:
			payouts[p.ID] = e.state.Ante
			dealerNet -= e.state.Ante
		case cmp < 0:
			payouts[p.ID] = -e.state.Ante
			dealerNet += e.state.Ante
		default:
			payouts[p.ID] = 0
		}
	}
	payouts[dealer.ID] = dealerNet
	e.state.Payouts = payouts
	e.state.Phase = PhaseSettled
}

func (e *Engine) indexOf(id string) int {
	for i, p := range e.state.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// State exposes the engine's state for the replication layer.
func (e *Engine) State() *State { return &e.state }

// SetState replaces the whole state. Mirrors overwrite, never patch.
func (e *Engine) SetState(s *State) { e.state = *s }

type snapshot struct {
	State State               `json:"state"`
	Deck  domain.DeckSnapshot `json:"deck"`
}

// Snapshot serializes the state plus a flattened deck for replication.
func (e *Engine) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{State: e.state, Deck: e.deck.Snapshot()})
}

// Restore adopts a snapshot wholesale.
func (e *Engine) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("fivedraw restore: %w", err)
	}
	e.state = snap.State
	e.deck.Restore(snap.Deck)
	return nil
}

// Intent type tag understood by the engine.
const IntentDiscard = "fivedraw/discard"

// Action is the closed set of player actions.
type Action interface{ isAction() }

// DiscardAction swaps up to four cards; an empty list stands pat.
type DiscardAction struct {
	Cards []domain.Card `json:"cards"`
}

func (DiscardAction) isAction() {}

// DecodeAction maps a wire intent onto the closed action type.
func DecodeAction(in domain.Intent) (Action, error) {
	switch in.Type {
	case IntentDiscard:
		var a DiscardAction
		if len(in.Payload) == 0 {
			return a, nil // stand pat
		}
		if err := in.DecodePayload(&a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, domain.ErrUnknownIntent
	}
}

// Apply decodes and dispatches a wire intent.
func (e *Engine) Apply(in domain.Intent) error {
	action, err := DecodeAction(in)
	if err != nil {
		return err
	}
	switch a := action.(type) {
	case DiscardAction:
		return e.Discard(in.Actor, a.Cards)
	default:
		return domain.ErrUnknownIntent
	}
}
