package tienlen

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"cardroom/internal/domain"
)

// Phase is the lifecycle stage of a Tien Len round.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhasePlaying Phase = "playing"
	PhaseSettled Phase = "settled"
)

const (
	maxPlayers   = 4
	cardsPerHand = 13
)

var (
	ErrCardsNotHeld = errors.New("played cards are not all in hand")
	ErrCannotBeat   = errors.New("play does not beat the table")
	ErrMustLead     = errors.New("cannot pass on an open table")
	ErrTrickLocked  = errors.New("player already passed this trick")
)

// Player is one seat in a Tien Len round.
type Player struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Hand       []domain.Card `json:"hand"`
	Passed     bool          `json:"passed"`
	FinishRank int           `json:"finish_rank"` // 0 while still playing, 1 = first out
}

// State is the whole replicated game state for one table.
type State struct {
	Phase       Phase            `json:"phase"`
	Variant     string           `json:"variant"`
	Players     []*Player        `json:"players"`
	Current     int              `json:"current"`
	Leader      int              `json:"leader"`
	Table       Combination      `json:"table"`
	TableOwner  int              `json:"table_owner"`
	Round       int              `json:"round"`
	FinishOrder []string         `json:"finish_order"`
	LastWinner  string           `json:"last_winner"`
	Payouts     map[string]int64 `json:"payouts,omitempty"`
}

// Engine owns a single mutable State and advances it through validated
// actions. It performs no I/O; the replication layer moves its snapshots.
type Engine struct {
	rules   Rules
	baseBet int64
	state   State
	deck    *domain.Deck
}

// New constructs a waiting engine for the given rule variant. rng may be nil.
func New(rules Rules, baseBet int64, rng *rand.Rand) (*Engine, error) {
	deck := domain.NewDeck(1, rng)
	if err := deck.EnsureCapacity(maxPlayers * cardsPerHand); err != nil {
		return nil, fmt.Errorf("tienlen: %w", err)
	}
	return &Engine{
		rules:   rules,
		baseBet: baseBet,
		state:   State{Phase: PhaseWaiting, Variant: rules.Name},
		deck:    deck,
	}, nil
}

// Rules returns the variant preset the engine was built with.
func (e *Engine) Rules() Rules { return e.rules }

// AddPlayer registers a player while the table is waiting.
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

// RemovePlayer unregisters a player while the table is waiting.
func (e *Engine) RemovePlayer(id string) error {
	if e.state.Phase != PhaseWaiting {
		return domain.ErrWrongPhase
	}
	for i, p := range e.state.Players {
		if p.ID == id {
			e.state.Players = append(e.state.Players[:i], e.state.Players[i+1:]...)
			return nil
		}
	}
	return domain.ErrUnknownPlayer
}

// StartRound resets per-round fields, deals 13 cards to every seat and picks
// the opening leader per the variant's lead rule.
func (e *Engine) StartRound() error {
	if e.state.Phase == PhasePlaying {
		return domain.ErrWrongPhase
	}
	if len(e.state.Players) < 2 {
		return domain.ErrTooFewPlayers
	}

	e.deck.Reset()
	for _, p := range e.state.Players {
		p.Hand = e.deck.DealMany(cardsPerHand)
		if len(p.Hand) != cardsPerHand {
			return fmt.Errorf("tienlen deal: %w", domain.ErrDeckTooSmall)
		}
		SortHand(p.Hand)
		p.Passed = false
		p.FinishRank = 0
	}

	e.state.Phase = PhasePlaying
	e.state.Round++
	e.state.Table = Combination{Type: Invalid}
	e.state.TableOwner = -1
	e.state.FinishOrder = nil
	e.state.Payouts = nil
	e.state.Leader = e.openingLeader()
	e.state.Current = e.state.Leader
	return nil
}

// openingLeader applies the variant lead rule.
func (e *Engine) openingLeader() int {
	if e.rules.Lead == LeadPreviousWinner && e.state.LastWinner != "" {
		for i, p := range e.state.Players {
			if p.ID == e.state.LastWinner {
				return i
			}
		}
	}
	// Lowest card by composite power.
	lead, best := 0, -1
	for i, p := range e.state.Players {
		for _, c := range p.Hand {
			if pw := cardPower(c); best == -1 || pw < best {
				best = pw
				lead = i
			}
		}
	}
	return lead
}

// PlayCards plays a combination for the acting player.
func (e *Engine) PlayCards(actor string, cards []domain.Card) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	p := e.state.Players[idx]
	if !domain.ContainsAll(p.Hand, cards) {
		return ErrCardsNotHeld
	}

	combo := Identify(cards)
	if combo.Type == Invalid {
		return ErrCannotBeat
	}
	if !CanBeat(e.rules, e.state.Table, combo) {
		return ErrCannotBeat
	}

	p.Hand = domain.RemoveCards(p.Hand, combo.Cards)
	e.state.Table = combo
	e.state.TableOwner = idx

	if len(p.Hand) == 0 {
		p.FinishRank = len(e.state.FinishOrder) + 1
		e.state.FinishOrder = append(e.state.FinishOrder, p.ID)
	}

	if e.unfinishedCount() <= 1 {
		e.settle()
		return nil
	}
	e.advanceAfterAction(idx)
	return nil
}

// Pass declines to beat the table for the rest of the trick.
func (e *Engine) Pass(actor string) error {
	idx, err := e.requireTurn(actor)
	if err != nil {
		return err
	}
	if e.state.Table.Type == Invalid {
		return ErrMustLead
	}
	e.state.Players[idx].Passed = true
	e.advanceAfterAction(idx)
	return nil
}

// requireTurn validates phase and acting-player preconditions.
func (e *Engine) requireTurn(actor string) (int, error) {
	if e.state.Phase != PhasePlaying {
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
	if e.state.Players[idx].FinishRank != 0 {
		return 0, domain.ErrPlayerFinished
	}
	if idx != e.state.Current {
		return 0, domain.ErrNotYourTurn
	}
	if e.state.Players[idx].Passed {
		return 0, ErrTrickLocked
	}
	return idx, nil
}

// advanceAfterAction moves the turn to the next eligible player, closing the
// trick when nobody but the table owner can still act.
func (e *Engine) advanceAfterAction(from int) {
	next := e.nextEligible(from)
	if next == -1 || next == e.state.TableOwner {
		e.closeTrick()
		return
	}
	e.state.Current = next
}

// nextEligible scans clockwise for a player who has neither finished nor
// passed this trick, wrapping modulo player count. Returns -1 if none.
func (e *Engine) nextEligible(from int) int {
	n := len(e.state.Players)
	for step := 1; step < n; step++ {
		i := (from + step) % n
		p := e.state.Players[i]
		if p.FinishRank == 0 && !p.Passed {
			return i
		}
	}
	return -1
}

// closeTrick opens a fresh trick led by the last play's owner, or the next
// unfinished player after them when they have already gone out.
func (e *Engine) closeTrick() {
	for _, p := range e.state.Players {
		p.Passed = false
	}
	lead := e.state.TableOwner
	if lead < 0 || e.state.Players[lead].FinishRank != 0 {
		lead = e.nextUnfinished(max(lead, 0))
	}
	e.state.Table = Combination{Type: Invalid}
	e.state.TableOwner = -1
	e.state.Leader = lead
	e.state.Current = lead
}

func (e *Engine) nextUnfinished(from int) int {
	n := len(e.state.Players)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if e.state.Players[i].FinishRank == 0 {
			return i
		}
	}
	return from
}

func (e *Engine) unfinishedCount() int {
	n := 0
	for _, p := range e.state.Players {
		if p.FinishRank == 0 {
			n++
		}
	}
	return n
}

// settle assigns the final finishing rank, computes zero-sum payouts from
// the rank weights and ends the round.
func (e *Engine) settle() {
	for _, p := range e.state.Players {
		if p.FinishRank == 0 {
			p.FinishRank = len(e.state.FinishOrder) + 1
			e.state.FinishOrder = append(e.state.FinishOrder, p.ID)
		}
	}

	weights := rankWeights(len(e.state.Players))
	payouts := make(map[string]int64, len(e.state.Players))
	for _, p := range e.state.Players {
		payouts[p.ID] = int64(weights[p.FinishRank-1]) * e.baseBet
	}
	e.state.Payouts = payouts
	e.state.LastWinner = e.state.FinishOrder[0]
	e.state.Phase = PhaseSettled
}

// rankWeights returns zero-sum settlement weights indexed by finish rank.
func rankWeights(players int) []int {
	switch players {
	case 2:
		return []int{1, -1}
	case 3:
		return []int{1, 0, -1}
	default:
		return []int{2, 1, -1, -2}
	}
}

// RankName names a finishing rank for the given table size.
func RankName(rank, players int) string {
	switch {
	case rank == 1:
		return "president"
	case rank == players:
		return "slave"
	case rank == 2 && players == 4:
		return "vice-president"
	case rank == players-1 && players == 4:
		return "vice-slave"
	default:
		return "citizen"
	}
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
		return fmt.Errorf("tienlen restore: %w", err)
	}
	e.state = snap.State
	e.deck.Restore(snap.Deck)
	return nil
}
