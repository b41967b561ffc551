// Package blackjack implements the banked twenty-one variant: players bet
// against a rotating dealer seat, may hit, stand, double, split once or
// surrender, and the dealer draws to seventeen from a two-deck shoe.
package blackjack

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
	PhaseActing  Phase = "acting"
	PhaseSettled Phase = "settled"
)

const (
	maxPlayers  = 7
	shoePacks   = 2
	dealerStand = 17
	target      = 21
)

var (
	ErrBadBet        = errors.New("bet must be positive")
	ErrDealerBets    = errors.New("the dealer seat does not bet")
	ErrAlreadyBet    = errors.New("bet already placed this round")
	ErrHandResolved  = errors.New("hand is already resolved")
	ErrCannotDouble  = errors.New("double requires exactly two cards")
	ErrCannotSplit   = errors.New("split requires a two-card pair, once per round")
	ErrLateSurrender = errors.New("surrender must be the first action")
)

// Hand is a single bet-carrying hand; a split gives a player two of them.
type Hand struct {
	Cards       []domain.Card `json:"cards"`
	Bet         int64         `json:"bet"`
	Stood       bool          `json:"stood"`
	Busted      bool          `json:"busted"`
	Doubled     bool          `json:"doubled"`
	Surrendered bool          `json:"surrendered"`
	FromSplit   bool          `json:"from_split"`
}

// done reports whether the hand needs no further action.
func (h *Hand) done() bool {
	return h.Stood || h.Busted || h.Surrendered
}

// Player is one seat, dealer included. The dealer seat carries no bets.
type Player struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Hands   []*Hand `json:"hands"`
	Active  int     `json:"active"` // index of the hand being played
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

// Engine drives betting, hand play and the dealer's fixed drawing rule.
type Engine struct {
	state State
	deck  *domain.Deck
}

// New constructs a waiting engine over a two-deck shoe. rng may be nil.
func New(rng *rand.Rand) (*Engine, error) {
	deck := domain.NewDeck(shoePacks, rng)
	if err := deck.EnsureCapacity(maxPlayers * 12); err != nil {
		return nil, fmt.Errorf("blackjack: %w", err)
	}
	return &Engine{state: State{Phase: PhaseWaiting}, deck: deck}, nil
}

// AddPlayer seats a player between rounds. The first seat deals first.
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
			if e.state.Dealer >= len(e.state.Players) {
				e.state.Dealer = 0
			}
			return nil
		}
	}
	return domain.ErrUnknownPlayer
}

// StartRound rotates the dealer seat, reshuffles the shoe and opens betting.
func (e *Engine) StartRound() error {
	switch e.state.Phase {
	case PhaseWaiting, PhaseSettled:
	default:
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
		p.Hands = nil
		p.Active = 0
	}

	e.deck.Reset()
	e.state.Phase = PhaseBetting
	return nil
}

// PlaceBet records a non-dealer bet; the last bet triggers the deal.
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
	if len(p.Hands) > 0 {
		return ErrAlreadyBet
	}
	p.Hands = []*Hand{{Bet: amount}}

	for i, other := range e.state.Players {
		if i != e.state.Dealer && len(other.Hands) == 0 {
			return nil // still waiting on bets
		}
	}
	return e.deal()
}

// deal gives every hand two cards, dealer last, resolves naturals and hands
// the turn to the first undone hand left of the dealer.
func (e *Engine) deal() error {
	dealer := e.state.Players[e.state.Dealer]
	dealer.Hands = []*Hand{{}}
	for _, p := range e.state.Players {
		h := p.Hands[0]
		h.Cards = e.deck.DealMany(2)
		if len(h.Cards) != 2 {
			return fmt.Errorf("blackjack deal: %w", domain.ErrDeckTooSmall)
		}
	}

	// Naturals stand immediately; a dealer natural ends the round here.
	for _, p := range e.state.Players {
		if isNatural(p.Hands[0]) {
			p.Hands[0].Stood = true
		}
	}
	e.state.Phase = PhaseActing
	if isNatural(dealer.Hands[0]) {
		e.settle()
		return nil
	}
	return e.advance(e.state.Dealer)
}

// HandValue returns the best total of a hand, counting one ace as eleven
// when that does not bust.
func HandValue(cards []domain.Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		v := int(c.Rank)
		if v > 10 {
			v = 10
		}
		if c.Rank == domain.Ace {
			aces++
		}
		total += v
	}
	if aces > 0 && total+10 <= target {
		return total + 10, true
	}
	return total, false
}

func isNatural(h *Hand) bool {
	if h.FromSplit || len(h.Cards) != 2 {
		return false
	}
	v, _ := HandValue(h.Cards)
	return v == target
}

// Hit draws one card onto the acting hand.
func (e *Engine) Hit(actor string) error {
	p, h, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	if err := e.drawTo(h); err != nil {
		return err
	}
	if h.done() {
		return e.advanceFrom(p)
	}
	return nil
}

// Stand ends the acting hand.
func (e *Engine) Stand(actor string) error {
	p, h, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	h.Stood = true
	return e.advanceFrom(p)
}

// Double doubles the bet on a two-card hand, draws once and stands.
func (e *Engine) Double(actor string) error {
	p, h, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	if len(h.Cards) != 2 {
		return ErrCannotDouble
	}
	if err := e.drawTo(h); err != nil {
		return err
	}
	h.Bet *= 2
	h.Doubled = true
	if !h.Busted {
		h.Stood = true
	}
	return e.advanceFrom(p)
}

// Split turns a two-card pair into two hands, one extra card each.
func (e *Engine) Split(actor string) error {
	p, h, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	if len(p.Hands) != 1 || len(h.Cards) != 2 || h.Cards[0].Rank != h.Cards[1].Rank {
		return ErrCannotSplit
	}
	second := &Hand{Cards: []domain.Card{h.Cards[1]}, Bet: h.Bet, FromSplit: true}
	h.Cards = h.Cards[:1]
	h.FromSplit = true
	p.Hands = append(p.Hands, second)
	for _, hand := range p.Hands {
		card, ok := e.deck.Deal()
		if !ok {
			return fmt.Errorf("blackjack split: %w", domain.ErrDeckTooSmall)
		}
		hand.Cards = append(hand.Cards, card)
	}
	return nil
}

// Surrender forfeits half the bet; only legal as the hand's first action.
func (e *Engine) Surrender(actor string) error {
	p, h, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	if len(h.Cards) != 2 || h.FromSplit {
		return ErrLateSurrender
	}
	h.Surrendered = true
	return e.advanceFrom(p)
}

// drawTo deals one card and marks the hand busted past twenty-one.
func (e *Engine) drawTo(h *Hand) error {
	card, ok := e.deck.Deal()
	if !ok {
		return fmt.Errorf("blackjack draw: %w", domain.ErrDeckTooSmall)
	}
	h.Cards = append(h.Cards, card)
	if v, _ := HandValue(h.Cards); v > target {
		h.Busted = true
	}
	return nil
}

func (e *Engine) requireTurn(actor string) (*Player, *Hand, error) {
	if e.state.Phase != PhaseActing {
		return nil, nil, domain.ErrWrongPhase
	}
	idx := e.indexOf(actor)
	if idx == -1 {
		return nil, nil, domain.ErrUnknownPlayer
	}
	if idx == e.state.Dealer {
		return nil, nil, domain.ErrNotYourTurn
	}
	if idx != e.state.Current {
		return nil, nil, domain.ErrNotYourTurn
	}
	p := e.state.Players[idx]
	if p.Active >= len(p.Hands) {
		return nil, nil, domain.ErrPlayerFinished
	}
	h := p.Hands[p.Active]
	if h.done() {
		return nil, nil, ErrHandResolved
	}
	return p, h, nil
}

// advanceFrom moves to the player's next hand, or the next seat.
func (e *Engine) advanceFrom(p *Player) error {
	for p.Active < len(p.Hands) && p.Hands[p.Active].done() {
		p.Active++
	}
	if p.Active < len(p.Hands) {
		return nil // same seat, next split hand
	}
	return e.advance(e.state.Current)
}

// advance finds the next seat with an unresolved hand, dealer excluded, and
// lets the dealer play once every player is done.
func (e *Engine) advance(from int) error {
	n := len(e.state.Players)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if i == e.state.Dealer {
			continue
		}
		p := e.state.Players[i]
		for p.Active < len(p.Hands) && p.Hands[p.Active].done() {
			p.Active++
		}
		if p.Active < len(p.Hands) {
			e.state.Current = i
			return nil
		}
	}
	if err := e.playDealer(); err != nil {
		return err
	}
	e.settle()
	return nil
}

// playDealer draws the dealer hand to seventeen, standing on soft totals.
func (e *Engine) playDealer() error {
	h := e.state.Players[e.state.Dealer].Hands[0]
	for {
		v, _ := HandValue(h.Cards)
		if v >= dealerStand {
			if v > target {
				h.Busted = true
			}
			return nil
		}
		card, ok := e.deck.Deal()
		if !ok {
			return fmt.Errorf("blackjack draw: %w", domain.ErrDeckTooSmall)
		}
		h.Cards = append(h.Cards, card)
	}
}

// settle pays each hand against the dealer: naturals three to two, pushes
// even, surrenders half back. The dealer seat absorbs the net.
func (e *Engine) settle() {
	dealer := e.state.Players[e.state.Dealer]
	dealerHand := dealer.Hands[0]
	dealerValue, _ := HandValue(dealerHand.Cards)
	dealerNatural := isNatural(dealerHand)

	payouts := make(map[string]int64, len(e.state.Players))
	var dealerNet int64
	for i, p := range e.state.Players {
		if i == e.state.Dealer {
			continue
		}
		var net int64
		for _, h := range p.Hands {
			net += settleHand(h, dealerValue, dealerHand.Busted, dealerNatural)
		}
		payouts[p.ID] = net
		dealerNet -= net
	}
	payouts[dealer.ID] = dealerNet
	e.state.Payouts = payouts
	e.state.Phase = PhaseSettled
}

func settleHand(h *Hand, dealerValue int, dealerBust, dealerNatural bool) int64 {
	switch {
	case h.Surrendered:
		return -h.Bet / 2
	case h.Busted:
		return -h.Bet
	case isNatural(h):
		if dealerNatural {
			return 0
		}
		return h.Bet * 3 / 2
	case dealerNatural:
		return -h.Bet
	case dealerBust:
		return h.Bet
	}
	v, _ := HandValue(h.Cards)
	switch {
	case v > dealerValue:
		return h.Bet
	case v < dealerValue:
		return -h.Bet
	default:
		return 0
	}
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

// Snapshot serializes the state plus a flattened shoe for replication.
func (e *Engine) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{State: e.state, Deck: e.deck.Snapshot()})
}

// Restore adopts a snapshot wholesale.
func (e *Engine) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("blackjack restore: %w", err)
	}
	e.state = snap.State
	e.deck.Restore(snap.Deck)
	return nil
}
