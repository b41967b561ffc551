// Package holdem implements community-card poker: blind posting, four
// betting streets with min-raise tracking, all-in handling and a showdown
// over the best five of seven cards.
package holdem

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"cardroom/internal/domain"
	"cardroom/internal/domain/poker"
)

// Phase is a betting street or a terminal stage.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhasePreflop Phase = "preflop"
	PhaseFlop    Phase = "flop"
	PhaseTurn    Phase = "turn"
	PhaseRiver   Phase = "river"
	PhaseSettled Phase = "settled"
)

const maxPlayers = 9

var (
	ErrCannotCheck   = errors.New("cannot check facing a bet")
	ErrRaiseTooSmall = errors.New("raise below minimum")
	ErrNoChips       = errors.New("player has no chips")
)

// Player is one seat at the table. Chips persist across rounds.
type Player struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Hole    []domain.Card    `json:"hole"`
	Chips   int64            `json:"chips"`
	Bet     int64            `json:"bet"`     // committed this street
	Contrib int64            `json:"contrib"` // committed this round
	Folded  bool             `json:"folded"`
	AllIn   bool             `json:"all_in"`
	Acted   bool             `json:"acted"`
	Result  *poker.HandValue `json:"result,omitempty"`
}

// State is the replicated game state.
type State struct {
	Phase      Phase            `json:"phase"`
	Players    []*Player        `json:"players"`
	Dealer     int              `json:"dealer"`
	Current    int              `json:"current"`
	Community  []domain.Card    `json:"community"`
	Pot        int64            `json:"pot"`
	CurrentBet int64            `json:"current_bet"`
	MinRaise   int64            `json:"min_raise"`
	SmallBlind int64            `json:"small_blind"`
	BigBlind   int64            `json:"big_blind"`
	Round      int              `json:"round"`
	Payouts    map[string]int64 `json:"payouts,omitempty"`
}

// Engine owns a single table and advances it through validated actions.
type Engine struct {
	state State
	deck  *domain.Deck
	buyIn int64
}

// New constructs a waiting table. rng may be nil.
func New(smallBlind, bigBlind, buyIn int64, rng *rand.Rand) (*Engine, error) {
	if smallBlind <= 0 || bigBlind < smallBlind || buyIn < bigBlind {
		return nil, fmt.Errorf("holdem: bad stakes sb=%d bb=%d buyin=%d", smallBlind, bigBlind, buyIn)
	}
	deck := domain.NewDeck(1, rng)
	if err := deck.EnsureCapacity(maxPlayers*2 + 5); err != nil {
		return nil, fmt.Errorf("holdem: %w", err)
	}
	return &Engine{
		state: State{Phase: PhaseWaiting, SmallBlind: smallBlind, BigBlind: bigBlind},
		deck:  deck,
		buyIn: buyIn,
	}, nil
}

// AddPlayer seats a player with the configured buy-in while waiting.
func (e *Engine) AddPlayer(id, name string) error {
	if e.state.Phase != PhaseWaiting && e.state.Phase != PhaseSettled {
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
	e.state.Players = append(e.state.Players, &Player{ID: id, Name: name, Chips: e.buyIn})
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
			if e.state.Dealer >= len(e.state.Players) {
				e.state.Dealer = 0
			}
			return nil
		}
	}
	return domain.ErrUnknownPlayer
}

// StartRound moves the button, posts blinds, deals hole cards and opens
// preflop betting. Seats without chips sit the round out.
func (e *Engine) StartRound() error {
	switch e.state.Phase {
	case PhaseWaiting, PhaseSettled:
	default:
		return domain.ErrWrongPhase
	}

	funded := 0
	for _, p := range e.state.Players {
		if p.Chips > 0 {
			funded++
		}
	}
	if funded < 2 {
		return domain.ErrTooFewPlayers
	}

	if e.state.Round > 0 {
		// Last hand's folds must not steer the button.
		for _, p := range e.state.Players {
			p.Folded = false
		}
		e.state.Dealer = e.nextFunded(e.state.Dealer)
	}
	e.state.Round++
	e.state.Payouts = nil
	e.state.Community = nil
	e.state.Pot = 0

	e.deck.Reset()
	for _, p := range e.state.Players {
		p.Hole = nil
		p.Bet = 0
		p.Contrib = 0
		p.AllIn = false
		p.Acted = false
		p.Result = nil
		p.Folded = p.Chips <= 0 // broke seats sit out
		if !p.Folded {
			p.Hole = e.deck.DealMany(2)
			if len(p.Hole) != 2 {
				return fmt.Errorf("holdem deal: %w", domain.ErrDeckTooSmall)
			}
		}
	}

	// Heads-up the button posts the small blind; otherwise blinds sit left
	// of the button.
	var sb, bb int
	if funded == 2 {
		sb = e.state.Dealer
		if e.state.Players[sb].Folded {
			sb = e.nextFunded(sb)
		}
		bb = e.nextFunded(sb)
	} else {
		sb = e.nextFunded(e.state.Dealer)
		bb = e.nextFunded(sb)
	}
	e.post(sb, e.state.SmallBlind)
	e.post(bb, e.state.BigBlind)
	e.state.CurrentBet = e.state.BigBlind
	e.state.MinRaise = e.state.BigBlind
	e.state.Phase = PhasePreflop

	next := e.nextToAct(bb)
	if next == -1 {
		// Blinds already put everyone all-in.
		e.endStreet()
		return nil
	}
	e.state.Current = next
	return nil
}

// post commits chips to the current street, capping at the stack.
func (e *Engine) post(idx int, amount int64) {
	p := e.state.Players[idx]
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.Bet += amount
	p.Contrib += amount
	if p.Chips == 0 {
		p.AllIn = true
	}
}

// Fold discards the acting player's hand.
func (e *Engine) Fold(actor string) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	e.state.Players[idx].Folded = true
	e.state.Players[idx].Acted = true

	if live := e.livePlayers(); len(live) == 1 {
		e.settleFoldWin(live[0])
		return nil
	}
	e.advanceOrEndStreet(idx)
	return nil
}

// Check passes when no bet is outstanding for the acting player.
func (e *Engine) Check(actor string) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	p := e.state.Players[idx]
	if p.Bet != e.state.CurrentBet {
		return ErrCannotCheck
	}
	p.Acted = true
	e.advanceOrEndStreet(idx)
	return nil
}

// Call matches the outstanding bet, going all-in if the stack is short.
func (e *Engine) Call(actor string) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	p := e.state.Players[idx]
	e.post(idx, e.state.CurrentBet-p.Bet)
	p.Acted = true
	e.advanceOrEndStreet(idx)
	return nil
}

// Raise raises the street's bet to the given total. A raise below the
// minimum is legal only when it puts the raiser all-in.
func (e *Engine) Raise(actor string, to int64) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	p := e.state.Players[idx]
	if to <= e.state.CurrentBet {
		return ErrRaiseTooSmall
	}
	need := to - p.Bet
	if need > p.Chips {
		to = p.Bet + p.Chips // capped to an all-in
		need = p.Chips
	}
	raisedBy := to - e.state.CurrentBet
	if raisedBy <= 0 {
		return ErrRaiseTooSmall
	}
	if raisedBy < e.state.MinRaise && need < p.Chips {
		return ErrRaiseTooSmall
	}

	e.post(idx, need)
	e.state.CurrentBet = to
	if raisedBy >= e.state.MinRaise {
		e.state.MinRaise = raisedBy
	}
	p.Acted = true
	// The raise reopens action for everyone else still able to act.
	for i, other := range e.state.Players {
		if i != idx && !other.Folded && !other.AllIn {
			other.Acted = false
		}
	}
	e.advanceOrEndStreet(idx)
	return nil
}

func (e *Engine) requireTurn(actor string) (int, error) {
	switch e.state.Phase {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
	default:
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
	p := e.state.Players[idx]
	if p.Folded || p.AllIn {
		return 0, domain.ErrPlayerFinished
	}
	if idx != e.state.Current {
		return 0, domain.ErrNotYourTurn
	}
	return idx, nil
}

// advanceOrEndStreet hands the turn to the next player owing action, or
// closes the street when none remains.
func (e *Engine) advanceOrEndStreet(from int) {
	next := e.nextToAct(from)
	if next == -1 {
		e.endStreet()
		return
	}
	e.state.Current = next
}

// nextToAct finds the next seat that still owes action this street:
// unfolded, not all-in, and either unacted or short of the current bet.
func (e *Engine) nextToAct(from int) int {
	n := len(e.state.Players)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		p := e.state.Players[i]
		if p.Folded || p.AllIn {
			continue
		}
		if !p.Acted || p.Bet < e.state.CurrentBet {
			return i
		}
	}
	return -1
}

// nextFunded finds the next seat with chips, wrapping modulo player count.
func (e *Engine) nextFunded(from int) int {
	n := len(e.state.Players)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if e.state.Players[i].Chips > 0 && !e.state.Players[i].Folded {
			return i
		}
	}
	return from
}

// livePlayers returns indices of unfolded players.
func (e *Engine) livePlayers() []int {
	var live []int
	for i, p := range e.state.Players {
		if !p.Folded {
			live = append(live, i)
		}
	}
	return live
}

// canActCount counts unfolded players who are not all-in.
func (e *Engine) canActCount() int {
	n := 0
	for _, p := range e.state.Players {
		if !p.Folded && !p.AllIn {
			n++
		}
	}
	return n
}

// endStreet sweeps street bets into the pot and either deals the next
// street, runs the board out when betting is dead, or shows down.
func (e *Engine) endStreet() {
	for _, p := range e.state.Players {
		e.state.Pot += p.Bet
		p.Bet = 0
		p.Acted = false
	}
	e.state.CurrentBet = 0
	e.state.MinRaise = e.state.BigBlind

	if e.state.Phase == PhaseRiver {
		e.showdown()
		return
	}
	e.dealNextStreet()

	if e.canActCount() <= 1 {
		// Betting is over for good; run the remaining streets out.
		for e.state.Phase != PhaseRiver {
			e.dealNextStreet()
		}
		e.showdown()
		return
	}
	e.state.Current = e.nextToAct(e.state.Dealer)
}

func (e *Engine) dealNextStreet() {
	switch e.state.Phase {
	case PhasePreflop:
		e.state.Community = append(e.state.Community, e.deck.DealMany(3)...)
		e.state.Phase = PhaseFlop
	case PhaseFlop:
		e.state.Community = append(e.state.Community, e.deck.DealMany(1)...)
		e.state.Phase = PhaseTurn
	case PhaseTurn:
		e.state.Community = append(e.state.Community, e.deck.DealMany(1)...)
		e.state.Phase = PhaseRiver
	}
}

// settleFoldWin awards the pot to the last unfolded player.
func (e *Engine) settleFoldWin(winner int) {
	for _, p := range e.state.Players {
		e.state.Pot += p.Bet
		p.Bet = 0
	}
	w := e.state.Players[winner]
	w.Chips += e.state.Pot

	payouts := make(map[string]int64, len(e.state.Players))
	for _, p := range e.state.Players {
		payouts[p.ID] = -p.Contrib
	}
	payouts[w.ID] = e.state.Pot - w.Contrib
	e.state.Payouts = payouts
	e.state.Pot = 0
	e.state.Phase = PhaseSettled
}

// showdown evaluates the live hands and splits the pot among the best,
// leftover chips going to the earliest winner left of the button.
func (e *Engine) showdown() {
	live := e.livePlayers()
	var best poker.HandValue
	first := true
	for _, i := range live {
		p := e.state.Players[i]
		hv := poker.EvaluateBest(append(append([]domain.Card(nil), p.Hole...), e.state.Community...))
		p.Result = &hv
		if first || poker.Compare(hv, best) > 0 {
			best = hv
			first = false
		}
	}

	var winners []int
	n := len(e.state.Players)
	for step := 1; step <= n; step++ { // clockwise from the button
		i := (e.state.Dealer + step) % n
		p := e.state.Players[i]
		if !p.Folded && p.Result != nil && poker.Compare(*p.Result, best) == 0 {
			winners = append(winners, i)
		}
	}

	share := e.state.Pot / int64(len(winners))
	remainder := e.state.Pot % int64(len(winners))
	winnings := make(map[int]int64, len(winners))
	for _, i := range winners {
		winnings[i] = share
	}
	for k := 0; remainder > 0; k++ {
		winnings[winners[k%len(winners)]]++
		remainder--
	}

	payouts := make(map[string]int64, len(e.state.Players))
	for i, p := range e.state.Players {
		p.Chips += winnings[i]
		payouts[p.ID] = winnings[i] - p.Contrib
	}
	e.state.Payouts = payouts
	e.state.Pot = 0
	e.state.Phase = PhaseSettled
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
		return fmt.Errorf("holdem restore: %w", err)
	}
	e.state = snap.State
	e.deck.Restore(snap.Deck)
	return nil
}
