package bacay

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
	PhaseBetting Phase = "betting"
	PhaseDrawing Phase = "drawing"
	PhaseSettled Phase = "settled"
)

const (
	maxPlayers = 9
	maxCards   = 3
)

var (
	ErrBadBet      = errors.New("bet must be positive")
	ErrDealerBets  = errors.New("dealer does not place a bet")
	ErrAlreadyBet  = errors.New("bet already placed")
	ErrHandFull    = errors.New("hand already holds three cards")
	ErrAlreadyDone = errors.New("player already drew or stayed")
)

// Player is one seat, dealer included.
type Player struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Hand  []domain.Card `json:"hand"`
	Bet   int64         `json:"bet"`
	Acted bool          `json:"acted"`
	Score *Score        `json:"score,omitempty"`
}

// State is the replicated game state.
type State struct {
	Phase   Phase            `json:"phase"`
	Players []*Player        `json:"players"`
	Dealer  int              `json:"dealer"`
	Current int              `json:"current"`
	Round   int              `json:"round"`
	Payouts map[string]int64 `json:"payouts,omitempty"`
}

// Engine drives betting, dealing, the draw-or-stay pass and the reveal.
// One seat is the dealer; every settlement is zero-sum against that seat.
type Engine struct {
	state State
	deck  *domain.Deck
}

// New constructs a waiting engine. rng may be nil.
func New(rng *rand.Rand) (*Engine, error) {
	deck := domain.NewDeck(1, rng)
	if err := deck.EnsureCapacity(maxPlayers * maxCards); err != nil {
		return nil, fmt.Errorf("bacay: %w", err)
	}
	return &Engine{state: State{Phase: PhaseWaiting}, deck: deck}, nil
}

// AddPlayer seats a player while waiting. The first seat is the first dealer.
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

// StartRound opens the betting phase and rotates the dealer seat.
func (e *Engine) StartRound() error {
	if e.state.Phase == PhaseBetting || e.state.Phase == PhaseDrawing {
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
	for _, p := range e.state.Players {
		p.Hand = nil
		p.Bet = 0
		p.Acted = false
		p.Score = nil
	}
	e.state.Phase = PhaseBetting
	return nil
}

// PlaceBet records a non-dealer bet. Dealing starts once every non-dealer
// seat has bet.
func (e *Engine) PlaceBet(actor string, amount int64) error {
	if e.state.Phase != PhaseBetting {
		return domain.ErrWrongPhase
	}
	idx := e.indexOf(actor)
	if idx == -1 {
		return domain.ErrUnknownPlayer
	}
	if idx == e.state.Dealer {
		return ErrDealerBets
	}
	if amount <= 0 {
		return ErrBadBet
	}
	p := e.state.Players[idx]
	if p.Bet != 0 {
		return ErrAlreadyBet
	}
	p.Bet = amount

	for i, pl := range e.state.Players {
		if i != e.state.Dealer && pl.Bet == 0 {
			return nil // still waiting on bets
		}
	}
	return e.deal()
}

// deal hands out two cards per seat. A natural anywhere ends the round
// immediately; otherwise the draw pass begins left of the dealer.
func (e *Engine) deal() error {
	e.deck.Reset()
	for _, p := range e.state.Players {
		p.Hand = e.deck.DealMany(2)
		if len(p.Hand) != 2 {
			return fmt.Errorf("bacay deal: %w", domain.ErrDeckTooSmall)
		}
	}

	for _, p := range e.state.Players {
		if Evaluate(p.Hand).Natural {
			e.settle()
			return nil
		}
	}

	e.state.Phase = PhaseDrawing
	e.state.Current = (e.state.Dealer + 1) % len(e.state.Players)
	return nil
}

// Draw deals the acting player a third card and ends their turn.
func (e *Engine) Draw(actor string) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	p := e.state.Players[idx]
	if len(p.Hand) >= maxCards {
		return ErrHandFull
	}
	c, ok := e.deck.Deal()
	if !ok {
		return fmt.Errorf("bacay draw: %w", domain.ErrDeckTooSmall)
	}
	p.Hand = append(p.Hand, c)
	p.Acted = true
	e.advance(idx)
	return nil
}

// Stay keeps the two-card hand and ends the acting player's turn.
func (e *Engine) Stay(actor string) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	e.state.Players[idx].Acted = true
	e.advance(idx)
	return nil
}

func (e *Engine) requireTurn(actor string) (int, error) {
	if e.state.Phase != PhaseDrawing {
		return 0, domain.ErrWrongPhase
	}
	idx := e.indexOf(actor)
	if idx == -1 {
		return 0, domain.ErrUnknownPlayer
	}
	if idx != e.state.Current {
		return 0, domain.ErrNotYourTurn
	}
	if e.state.Players[idx].Acted {
		return 0, ErrAlreadyDone
	}
	return idx, nil
}

// advance moves to the next seat that has not acted, dealer last; when the
// dealer has acted the round reveals.
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
	e.settle()
}

// settle reveals every hand and pays each non-dealer against the dealer:
// the winner's category multiplier scales the seat's bet, pushes pay nothing,
// and the dealer absorbs the balance so the round sums to zero.
func (e *Engine) settle() {
	dealer := e.state.Players[e.state.Dealer]
	for _, p := range e.state.Players {
		s := Evaluate(p.Hand)
		p.Score = &s
	}

	payouts := make(map[string]int64, len(e.state.Players))
	var dealerNet int64
	for i, p := range e.state.Players {
		if i == e.state.Dealer {
			continue
		}
		switch cmp := Compare(*p.Score, *dealer.Score); {
		case cmp > 0:
			win := p.Bet * p.Score.Category.Multiplier()
			payouts[p.ID] = win
			dealerNet -= win
		case cmp < 0:
			loss := p.Bet * dealer.Score.Category.Multiplier()
			payouts[p.ID] = -loss
			dealerNet += loss
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
		return fmt.Errorf("bacay restore: %w", err)
	}
	e.state = snap.State
	e.deck.Restore(snap.Deck)
	return nil
}
