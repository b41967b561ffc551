package domain

import "fmt"

// Suit identifies one of the four french suits.
type Suit uint8

const (
	Spades Suit = iota
	Clubs
	Diamonds
	Hearts
)

// Rank is the face value of a card, 1 (ace) through 13 (king).
type Rank uint8

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Card is an immutable playing card. Copy distinguishes identical cards
// when a shoe of several decks is in play; it is zero for single-deck games.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
	Copy uint8 `json:"copy,omitempty"`
}

var suitNames = [4]string{"S", "C", "D", "H"}
var rankNames = [14]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String renders a card as e.g. "AS" or "10H".
func (c Card) String() string {
	if c.Rank < 1 || c.Rank > 13 || c.Suit > 3 {
		return fmt.Sprintf("?%d/%d", c.Rank, c.Suit)
	}
	return rankNames[c.Rank] + suitNames[c.Suit]
}

// Same reports whether two cards share suit and rank, ignoring the copy tag.
func (c Card) Same(o Card) bool {
	return c.Suit == o.Suit && c.Rank == o.Rank
}

// RemoveCards removes the given cards from a hand, matching suit, rank and
// copy exactly, and returns the updated hand. Cards not present are ignored.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// ContainsAll reports whether hand holds every card in want, with multiplicity.
func ContainsAll(hand []Card, want []Card) bool {
	counts := make(map[Card]int, len(hand))
	for _, c := range hand {
		counts[c]++
	}
	for _, c := range want {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}
