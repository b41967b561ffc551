package tienlen

import (
	"sort"

	"cardroom/internal/domain"
)

// ComboType classifies a set of played cards.
type ComboType int

const (
	Invalid ComboType = iota
	Single
	Pair
	Triple
	Quad    // four of a kind, plays as a bomb
	Run     // three or more consecutive ranks, deuce excluded
	PairRun // three or more consecutive pairs, deuce excluded
)

var comboNames = map[ComboType]string{
	Invalid: "invalid",
	Single:  "single",
	Pair:    "pair",
	Triple:  "triple",
	Quad:    "quad",
	Run:     "run",
	PairRun: "pair run",
}

func (t ComboType) String() string { return comboNames[t] }

// Combination is a detected play: its type, the cards sorted ascending, the
// augmented rank order of its top card and that card's composite power.
//
// Order and Power are deliberately distinct. Grouping and type detection use
// rank alone (Order); beat comparison in the suit-tiebreak variant uses the
// composite Power key. Mixing the two breaks grouping.
type Combination struct {
	Type  ComboType
	Cards []domain.Card
	Order int // rank order of the highest card, 0 (three) .. 12 (deuce)
	Power int // rank order * 4 + suit of the highest card
}

// rankOrder maps a natural rank onto the augmented Tien Len ordering where
// the three is lowest and the deuce highest.
func rankOrder(r domain.Rank) int {
	return (int(r) + 10) % 13
}

// cardPower is the composite comparison key: rank primary, suit secondary
// (spades < clubs < diamonds < hearts).
func cardPower(c domain.Card) int {
	return rankOrder(c.Rank)*4 + int(c.Suit)
}

const deuceOrder = 12

// SortHand orders cards ascending by power.
func SortHand(cards []domain.Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cardPower(cards[i]) < cardPower(cards[j])
	})
}

// Identify classifies cards as a Tien Len combination. It returns a
// Combination with Type Invalid when the cards form no legal play.
func Identify(cards []domain.Card) Combination {
	n := len(cards)
	if n == 0 {
		return Combination{Type: Invalid}
	}

	sorted := append([]domain.Card(nil), cards...)
	SortHand(sorted)
	top := sorted[n-1]
	combo := Combination{Cards: sorted, Order: rankOrder(top.Rank), Power: cardPower(top)}

	switch {
	case n == 1:
		combo.Type = Single
	case allSameRank(sorted):
		switch n {
		case 2:
			combo.Type = Pair
		case 3:
			combo.Type = Triple
		case 4:
			combo.Type = Quad
		default:
			combo.Type = Invalid
		}
	case isRun(sorted):
		combo.Type = Run
	case isPairRun(sorted):
		combo.Type = PairRun
	default:
		combo.Type = Invalid
	}
	return combo
}

// CanBeat decides whether next legally beats prev under the given rules.
// prev with Type Invalid means the table is open and any valid play wins.
func CanBeat(rules Rules, prev, next Combination) bool {
	if next.Type == Invalid {
		return false
	}
	if prev.Type == Invalid {
		return true
	}

	if beats, overridden := bombOverride(rules, prev, next); overridden {
		return beats
	}

	// Standard rule: same type, same size, strictly higher value.
	if prev.Type != next.Type || len(prev.Cards) != len(next.Cards) {
		return false
	}
	if rules.SuitTiebreak {
		return next.Power > prev.Power
	}
	return next.Order > prev.Order
}

// bombOverride applies the out-of-type chop table. The second return is true
// when the pairing is decided here rather than by the standard rule.
func bombOverride(rules Rules, prev, next Combination) (bool, bool) {
	prevDeuceSingle := prev.Type == Single && prev.Order == deuceOrder
	prevDeucePair := prev.Type == Pair && prev.Order == deuceOrder

	if !rules.PairRunChops {
		// Northern table: only quads act as bombs, and they chop deuces only.
		if next.Type == Quad && (prevDeuceSingle || prevDeucePair) {
			return true, true
		}
		return false, false
	}

	// Southern chop chain, longest pair runs on top.
	pairRunLen := func(c Combination) int {
		if c.Type != PairRun {
			return 0
		}
		return len(c.Cards) / 2
	}

	switch next.Type {
	case PairRun:
		n := pairRunLen(next)
		switch {
		case n >= 5:
			if prevDeuceSingle || prevDeucePair || prev.Type == Quad || pairRunLen(prev) >= 3 && pairRunLen(prev) < 5 {
				return true, true
			}
		case n == 4:
			if prevDeuceSingle || prevDeucePair || prev.Type == Quad || pairRunLen(prev) == 3 {
				return true, true
			}
		case n == 3:
			if prevDeuceSingle {
				return true, true
			}
		}
		if prev.Type == PairRun && pairRunLen(prev) == n {
			return next.Power > prev.Power, true
		}
	case Quad:
		if prevDeuceSingle || prevDeucePair || pairRunLen(prev) == 3 {
			return true, true
		}
		if prev.Type == Quad {
			return next.Order > prev.Order, true
		}
	}
	return false, false
}

func allSameRank(cards []domain.Card) bool {
	if len(cards) == 0 {
		return false
	}
	r := cards[0].Rank
	for _, c := range cards {
		if c.Rank != r {
			return false
		}
	}
	return true
}

// isRun reports a sequence of three or more consecutive ranks. The deuce can
// never be part of a run and duplicate ranks are not allowed.
func isRun(cards []domain.Card) bool {
	if len(cards) < 3 {
		return false
	}
	orders := make([]int, len(cards))
	for i, c := range cards {
		o := rankOrder(c.Rank)
		if o == deuceOrder {
			return false
		}
		orders[i] = o
	}
	sort.Ints(orders)
	for i := 1; i < len(orders); i++ {
		if orders[i] != orders[i-1]+1 {
			return false
		}
	}
	return true
}

// isPairRun reports three or more consecutive pairs, deuce excluded.
func isPairRun(cards []domain.Card) bool {
	if len(cards) < 6 || len(cards)%2 != 0 {
		return false
	}
	orders := make([]int, len(cards))
	for i, c := range cards {
		o := rankOrder(c.Rank)
		if o == deuceOrder {
			return false
		}
		orders[i] = o
	}
	sort.Ints(orders)

	pairOrders := make([]int, 0, len(orders)/2)
	for i := 0; i < len(orders); i += 2 {
		if orders[i] != orders[i+1] {
			return false
		}
		pairOrders = append(pairOrders, orders[i])
	}
	for i := 1; i < len(pairOrders); i++ {
		if pairOrders[i] != pairOrders[i-1]+1 {
			return false
		}
	}
	return true
}
