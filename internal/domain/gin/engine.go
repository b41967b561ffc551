package gin

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"cardroom/internal/domain"
)

// Phase is the lifecycle stage of a round.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseDraw    Phase = "draw"
	PhaseDiscard Phase = "discard"
	PhaseSettled Phase = "settled"
)

const (
	handSize      = 10
	knockLimit    = 10
	ginBonus      = 25
	undercutBonus = 25
)

var (
	ErrCannotKnock    = errors.New("deadwood exceeds the knock limit")
	ErrDiscardDrawn   = errors.New("cannot discard the card just taken from the pile")
	ErrPileEmpty      = errors.New("discard pile is empty")
	ErrNeedTwoPlayers = errors.New("gin seats exactly two players")
)

// Player is one of the two seats.
type Player struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Hand     []domain.Card   `json:"hand"`
	Melds    [][]domain.Card `json:"melds,omitempty"`
	Deadwood int             `json:"deadwood"`
}

// State is the replicated game state.
type State struct {
	Phase     Phase            `json:"phase"`
	Players   []*Player        `json:"players"`
	Dealer    int              `json:"dealer"`
	Current   int              `json:"current"`
	Pile      []domain.Card    `json:"pile"` // top is the last element
	PileDrawn *domain.Card     `json:"pile_drawn,omitempty"`
	Round     int              `json:"round"`
	Void      bool             `json:"void"` // stock ran out, nobody scores
	Payouts   map[string]int64 `json:"payouts,omitempty"`
}

// Engine drives the draw-discard loop and knock settlement.
type Engine struct {
	state State
	deck  *domain.Deck
}

// New constructs a waiting engine. rng may be nil.
func New(rng *rand.Rand) (*Engine, error) {
	deck := domain.NewDeck(1, rng)
	if err := deck.EnsureCapacity(2*handSize + 1); err != nil {
		return nil, fmt.Errorf("gin: %w", err)
	}
	return &Engine{state: State{Phase: PhaseWaiting}, deck: deck}, nil
}

// AddPlayer seats one of the two players between rounds.
func (e *Engine) AddPlayer(id, name string) error {
	if e.state.Phase != PhaseWaiting && e.state.Phase != PhaseSettled {
		return domain.ErrWrongPhase
	}
	if len(e.state.Players) >= 2 {
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

// RemovePlayer unseats a player between rounds.
func (e *Engine) RemovePlayer(id string) error {
	if e.state.Phase != PhaseWaiting && e.state.Phase != PhaseSettled {
		return domain.ErrWrongPhase
	}
	for i, p := range e.state.Players {
		if p.ID == id {
			e.state.Players = append(e.state.Players[:i], e.state.Players[i+1:]...)
			e.state.Dealer = 0
			return nil
		}
	}
	return domain.ErrUnknownPlayer
}

// StartRound alternates the dealer, deals ten cards each, turns the upcard
// and gives the non-dealer the first draw.
func (e *Engine) StartRound() error {
	switch e.state.Phase {
	case PhaseWaiting, PhaseSettled:
	default:
		return domain.ErrWrongPhase
	}
	if len(e.state.Players) != 2 {
		return ErrNeedTwoPlayers
	}

	if e.state.Round > 0 {
		e.state.Dealer = 1 - e.state.Dealer
	}
	e.state.Round++
	e.state.Payouts = nil
	e.state.Void = false
	e.state.PileDrawn = nil

	e.deck.Reset()
	for _, p := range e.state.Players {
		p.Hand = e.deck.DealMany(handSize)
		if len(p.Hand) != handSize {
			return fmt.Errorf("gin deal: %w", domain.ErrDeckTooSmall)
		}
		p.Melds = nil
		p.Deadwood = 0
	}
	up, ok := e.deck.Deal()
	if !ok {
		return fmt.Errorf("gin upcard: %w", domain.ErrDeckTooSmall)
	}
	e.state.Pile = []domain.Card{up}
	e.state.Current = 1 - e.state.Dealer
	e.state.Phase = PhaseDraw
	return nil
}

// DrawStock takes the top stock card. An empty stock voids the round.
func (e *Engine) DrawStock(actor string) error {
	idx, err := e.requireTurn(actor, PhaseDraw)
	if err != nil {
		return err
	}
	card, ok := e.deck.Deal()
	if !ok {
		e.voidRound()
		return nil
	}
	e.state.Players[idx].Hand = append(e.state.Players[idx].Hand, card)
	e.state.PileDrawn = nil
	e.state.Phase = PhaseDiscard
	return nil
}

// DrawPile takes the top of the discard pile.
func (e *Engine) DrawPile(actor string) error {
	idx, err := e.requireTurn(actor, PhaseDraw)
	if err != nil {
		return err
	}
	if len(e.state.Pile) == 0 {
		return ErrPileEmpty
	}
	top := e.state.Pile[len(e.state.Pile)-1]
	e.state.Pile = e.state.Pile[:len(e.state.Pile)-1]
	e.state.Players[idx].Hand = append(e.state.Players[idx].Hand, top)
	e.state.PileDrawn = &top
	e.state.Phase = PhaseDiscard
	return nil
}

// Discard puts one held card on the pile and passes the turn. The card
// just taken from the pile may not go straight back.
func (e *Engine) Discard(actor string, card domain.Card) error {
	idx, err := e.requireTurn(actor, PhaseDiscard)
	if err != nil {
		return err
	}
	p := e.state.Players[idx]
	if !domain.ContainsAll(p.Hand, []domain.Card{card}) {
		return domain.ErrBadPayload
	}
	if e.state.PileDrawn != nil && e.state.PileDrawn.Same(card) {
		return ErrDiscardDrawn
	}
	p.Hand = domain.RemoveCards(p.Hand, []domain.Card{card})
	e.state.Pile = append(e.state.Pile, card)
	e.state.PileDrawn = nil
	e.state.Current = 1 - idx
	e.state.Phase = PhaseDraw
	return nil
}

// Knock discards one card and ends the round if the remaining ten cards
// hold ten deadwood or less. Gin earns a bonus; an equal-or-better
// defender undercuts for one.
func (e *Engine) Knock(actor string, card domain.Card) error {
	idx, err := e.requireTurn(actor, PhaseDiscard)
	if err != nil {
		return err
	}
	p := e.state.Players[idx]
	if !domain.ContainsAll(p.Hand, []domain.Card{card}) {
		return domain.ErrBadPayload
	}
	kept := domain.RemoveCards(p.Hand, []domain.Card{card})
	melds, dw := BestMelds(kept)
	if dw > knockLimit {
		return ErrCannotKnock
	}

	p.Hand = kept
	p.Melds = melds
	p.Deadwood = dw
	e.state.Pile = append(e.state.Pile, card)
	e.state.PileDrawn = nil

	opp := e.state.Players[1-idx]
	oppMelds, oppDW := BestMelds(opp.Hand)
	opp.Melds = oppMelds
	opp.Deadwood = oppDW

	var points int64
	winner, loser := p, opp
	switch {
	case dw == 0: // gin, immune to the undercut
		points = int64(oppDW) + ginBonus
	case oppDW <= dw:
		winner, loser = opp, p
		points = int64(dw-oppDW) + undercutBonus
	default:
		points = int64(oppDW - dw)
	}
	e.state.Payouts = map[string]int64{winner.ID: points, loser.ID: -points}
	e.state.Phase = PhaseSettled
	return nil
}

// voidRound ends a round nobody can win; both players break even.
func (e *Engine) voidRound() {
	e.state.Void = true
	e.state.Payouts = map[string]int64{
		e.state.Players[0].ID: 0,
		e.state.Players[1].ID: 0,
	}
	e.state.Phase = PhaseSettled
}

func (e *Engine) requireTurn(actor string, want Phase) (int, error) {
	if e.state.Phase != want {
		return 0, domain.ErrWrongPhase
	}
	idx := -1
	for i, p := range e.state.Players {
		if p.ID == actor {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, domain.ErrUnknownPlayer
	}
	if idx != e.state.Current {
		return 0, domain.ErrNotYourTurn
	}
	return idx, nil
}

// State exposes the engine's state for the replication layer.
func (e *Engine) State() *State { return &e.state }

// SetState replaces the whole state. Mirrors overwrite, never patch.
func (e *Engine) SetState(s *State) { e.state = *s }

type snapshot struct {
	State State               `json:"state"`
	Deck  domain.DeckSnapshot `json:"deck"`
}

// Snapshot serializes the state plus the flattened stock for replication.
func (e *Engine) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{State: e.state, Deck: e.deck.Snapshot()})
}

// Restore adopts a snapshot wholesale.
func (e *Engine) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("gin restore: %w", err)
	}
	e.state = snap.State
	e.deck.Restore(snap.Deck)
	return nil
}
