// Package poker ranks five-card poker hands and picks the best five cards
// out of up to seven (two hole cards plus community cards).
package poker

import (
	"sort"

	"cardroom/internal/domain"
)

// Category is a standard poker hand class. Higher is better.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryNames = map[Category]string{
	HighCard:      "High Card",
	OnePair:       "One Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
}

func (c Category) String() string { return categoryNames[c] }

// HandValue is a totally ordered evaluation result: category first, then a
// category-specific tiebreak vector compared element by element (quad rank
// before kicker, trips before kickers, and so on).
type HandValue struct {
	Category Category
	Tiebreak []int
	Cards    []domain.Card // the five cards forming the hand
}

// Compare returns <0, 0 or >0 as a ranks below, equal to or above b.
func Compare(a, b HandValue) int {
	if a.Category != b.Category {
		return int(a.Category) - int(b.Category)
	}
	n := len(a.Tiebreak)
	if len(b.Tiebreak) < n {
		n = len(b.Tiebreak)
	}
	for i := 0; i < n; i++ {
		if a.Tiebreak[i] != b.Tiebreak[i] {
			return a.Tiebreak[i] - b.Tiebreak[i]
		}
	}
	return 0
}

// aceHigh maps a card rank onto poker ordering where the ace is high.
func aceHigh(r domain.Rank) int {
	if r == domain.Ace {
		return 14
	}
	return int(r)
}

// EvaluateFive ranks exactly five cards.
func EvaluateFive(cards []domain.Card) HandValue {
	values := make([]int, 5)
	for i, c := range cards {
		values[i] = aceHigh(c.Rank)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	counts := make(map[int]int, 5)
	for _, v := range values {
		counts[v]++
	}

	flush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	straightHigh := straightHighCard(values)

	out := HandValue{Cards: append([]domain.Card(nil), cards...)}
	switch {
	case flush && straightHigh == 14:
		out.Category = RoyalFlush
		out.Tiebreak = []int{14}
	case flush && straightHigh > 0:
		out.Category = StraightFlush
		out.Tiebreak = []int{straightHigh}
	default:
		out.Category, out.Tiebreak = rankByCounts(values, counts, flush, straightHigh)
	}
	return out
}

// straightHighCard returns the high card of a five-card straight, 5 for the
// wheel (A-2-3-4-5), or 0 when the values do not form a straight. values must
// be sorted descending.
func straightHighCard(values []int) int {
	for i := 1; i < 5; i++ {
		if values[i] == values[i-1] {
			return 0
		}
	}
	if values[0]-values[4] == 4 {
		return values[0]
	}
	// Wheel: ace plays low under the 5-4-3-2.
	if values[0] == 14 && values[1] == 5 && values[1]-values[4] == 3 {
		return 5
	}
	return 0
}

func rankByCounts(values []int, counts map[int]int, flush bool, straightHigh int) (Category, []int) {
	var quad, trip int
	var pairs []int
	for v, n := range counts {
		switch n {
		case 4:
			quad = v
		case 3:
			trip = v
		case 2:
			pairs = append(pairs, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pairs)))

	kickers := func(exclude ...int) []int {
		out := make([]int, 0, 5)
		for _, v := range values {
			skip := false
			for _, e := range exclude {
				if v == e {
					skip = true
					break
				}
			}
			if !skip {
				out = append(out, v)
			}
		}
		return out
	}

	switch {
	case quad != 0:
		return FourOfAKind, append([]int{quad}, kickers(quad)...)
	case trip != 0 && len(pairs) > 0:
		return FullHouse, []int{trip, pairs[0]}
	case flush:
		return Flush, values
	case straightHigh > 0:
		return Straight, []int{straightHigh}
	case trip != 0:
		return ThreeOfAKind, append([]int{trip}, kickers(trip)...)
	case len(pairs) == 2:
		return TwoPair, append([]int{pairs[0], pairs[1]}, kickers(pairs[0], pairs[1])...)
	case len(pairs) == 1:
		return OnePair, append([]int{pairs[0]}, kickers(pairs[0])...)
	default:
		return HighCard, values
	}
}

// EvaluateBest picks the strongest five-card hand out of 5, 6 or 7 cards by
// evaluating every five-card subset. Subsets are generated iteratively; with
// at most C(7,5)=21 of them there is no need for anything cleverer.
func EvaluateBest(cards []domain.Card) HandValue {
	n := len(cards)
	if n <= 5 {
		return EvaluateFive(cards)
	}

	idx := [5]int{0, 1, 2, 3, 4}
	var best HandValue
	first := true
	pick := make([]domain.Card, 5)
	for {
		for i, j := range idx {
			pick[i] = cards[j]
		}
		hv := EvaluateFive(pick)
		if first || Compare(hv, best) > 0 {
			best = hv
			first = false
		}

		// Advance to the next combination of indices.
		i := 4
		for i >= 0 && idx[i] == n-5+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < 5; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return best
}
