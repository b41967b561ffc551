// Package bacay implements the three-card point-comparison game: hands score
// the sum of their card values modulo ten, two-card eights and nines are
// naturals, and special shapes carry payout multipliers.
package bacay

import (
	"sort"

	"cardroom/internal/domain"
)

// Category classifies a hand. Order matters: it is the tiebreak of last
// resort and drives the payout multiplier.
type Category int

const (
	Plain Category = iota + 1
	PairCat
	NaturalEight
	NaturalNine
	Straight
	Flush
	Triple
	StraightFlush
)

var categoryNames = map[Category]string{
	Plain:         "plain",
	PairCat:       "pair",
	NaturalEight:  "natural eight",
	NaturalNine:   "natural nine",
	Straight:      "straight",
	Flush:         "flush",
	Triple:        "triple",
	StraightFlush: "straight flush",
}

func (c Category) String() string { return categoryNames[c] }

// Multiplier returns the payout multiplier of a category.
func (c Category) Multiplier() int64 {
	switch c {
	case Plain:
		return 1
	case PairCat, NaturalEight, NaturalNine:
		return 2
	case Straight, Flush:
		return 3
	case Triple, StraightFlush:
		return 5
	}
	return 1
}

// Score is an evaluated hand.
type Score struct {
	Category Category `json:"category"`
	Points   int      `json:"points"`
	Natural  bool     `json:"natural"`
}

// cardPoints maps a rank onto its point value: ace one, two through nine at
// face value, tens and faces ten (zero modulo ten).
func cardPoints(r domain.Rank) int {
	if r >= 10 {
		return 10
	}
	return int(r)
}

// Evaluate scores a two- or three-card hand.
func Evaluate(cards []domain.Card) Score {
	points := 0
	for _, c := range cards {
		points += cardPoints(c.Rank)
	}
	points %= 10

	s := Score{Points: points, Category: Plain}

	if len(cards) == 2 {
		switch points {
		case 9:
			s.Category = NaturalNine
			s.Natural = true
		case 8:
			s.Category = NaturalEight
			s.Natural = true
		default:
			if cards[0].Rank == cards[1].Rank {
				s.Category = PairCat
			}
		}
		return s
	}

	if len(cards) != 3 {
		return s
	}

	sameSuit := cards[0].Suit == cards[1].Suit && cards[1].Suit == cards[2].Suit
	run := isThreeRun(cards)
	switch {
	case sameSuit && run:
		s.Category = StraightFlush
	case cards[0].Rank == cards[1].Rank && cards[1].Rank == cards[2].Rank:
		s.Category = Triple
	case sameSuit:
		s.Category = Flush
	case run:
		s.Category = Straight
	case cards[0].Rank == cards[1].Rank || cards[1].Rank == cards[2].Rank || cards[0].Rank == cards[2].Rank:
		s.Category = PairCat
	}
	return s
}

// isThreeRun reports three consecutive ranks, accepting queen-king-ace.
func isThreeRun(cards []domain.Card) bool {
	ranks := []int{int(cards[0].Rank), int(cards[1].Rank), int(cards[2].Rank)}
	sort.Ints(ranks)
	if ranks[0]+1 == ranks[1] && ranks[1]+1 == ranks[2] {
		return true
	}
	return ranks[0] == int(domain.Ace) && ranks[1] == int(domain.Queen) && ranks[2] == int(domain.King)
}

// Compare orders two scores: a natural beats any non-natural regardless of
// points, then higher points win, then category rank breaks the tie.
// Returns <0, 0 or >0 as a loses to, pushes with or beats b.
func Compare(a, b Score) int {
	if a.Natural != b.Natural {
		if a.Natural {
			return 1
		}
		return -1
	}
	if a.Points != b.Points {
		return a.Points - b.Points
	}
	return int(a.Category) - int(b.Category)
}
