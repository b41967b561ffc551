package domain

import (
	"errors"
	"math/rand"
	"time"
)

// ErrDeckTooSmall is returned when a deck cannot cover the worst-case deal
// it was sized for. Hitting it means a configuration fault, not a rule issue.
var ErrDeckTooSmall = errors.New("deck too small for requested deal")

// Deck is an ordered, shuffleable set of cards. Undealt cards are drawn from
// the end of the slice; dealt cards are retained so Reset can rebuild the
// full deck. Union of undealt+dealt always equals the constructed multiset.
type Deck struct {
	undealt []Card
	dealt   []Card
	rng     *rand.Rand
}

// NewDeck builds a deck of copies standard 52-card packs. rng may be nil,
// in which case a time-seeded source is used.
func NewDeck(copies int, rng *rand.Rand) *Deck {
	if copies < 1 {
		copies = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cards := make([]Card, 0, copies*52)
	for pack := 0; pack < copies; pack++ {
		for s := Spades; s <= Hearts; s++ {
			for r := Ace; r <= King; r++ {
				cards = append(cards, Card{Suit: s, Rank: r, Copy: uint8(pack)})
			}
		}
	}
	return &Deck{undealt: cards, rng: rng}
}

// EnsureCapacity verifies the full deck can cover n cards in one round.
// Engines call it at construction so an undersized shoe fails loudly instead
// of truncating hands mid-round.
func (d *Deck) EnsureCapacity(n int) error {
	if d.Size() < n {
		return ErrDeckTooSmall
	}
	return nil
}

// Size returns the total number of cards owned by the deck, dealt or not.
func (d *Deck) Size() int { return len(d.undealt) + len(d.dealt) }

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int { return len(d.undealt) }

// Shuffle applies a uniform permutation to the undealt cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.undealt), func(i, j int) {
		d.undealt[i], d.undealt[j] = d.undealt[j], d.undealt[i]
	})
}

// Deal pops the top undealt card. ok is false when the deck is exhausted;
// engines treat that as a fatal round fault rather than a rule violation.
func (d *Deck) Deal() (Card, bool) {
	if len(d.undealt) == 0 {
		return Card{}, false
	}
	top := d.undealt[len(d.undealt)-1]
	d.undealt = d.undealt[:len(d.undealt)-1]
	d.dealt = append(d.dealt, top)
	return top, true
}

// DealMany deals up to n cards, short-circuiting if the deck empties.
func (d *Deck) DealMany(n int) []Card {
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, ok := d.Deal()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// Reset recombines dealt and undealt cards and reshuffles.
func (d *Deck) Reset() {
	d.undealt = append(d.undealt, d.dealt...)
	d.dealt = d.dealt[:0]
	d.Shuffle()
}

// DeckSnapshot is the wire form of a deck, flattened for replication.
type DeckSnapshot struct {
	Undealt []Card `json:"undealt"`
	Dealt   []Card `json:"dealt"`
}

// Snapshot captures the deck's sequences for transmission.
func (d *Deck) Snapshot() DeckSnapshot {
	return DeckSnapshot{
		Undealt: append([]Card(nil), d.undealt...),
		Dealt:   append([]Card(nil), d.dealt...),
	}
}

// Restore replaces the deck's sequences from a snapshot.
func (d *Deck) Restore(s DeckSnapshot) {
	d.undealt = append(d.undealt[:0], s.Undealt...)
	d.dealt = append(d.dealt[:0], s.Dealt...)
}
