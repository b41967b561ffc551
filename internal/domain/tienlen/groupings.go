package tienlen

import (
	"sort"

	"cardroom/internal/domain"
)

// Groupings enumerates every legal combination hidden in a hand: all
// same-rank subsets of size 1..4, every sub-run of length >= 3 of every
// maximal consecutive-rank run, and (southern) every consecutive-pair run.
// Hands hold at most 13 cards, so plain iteration is fine.
func Groupings(hand []domain.Card) []Combination {
	sorted := append([]domain.Card(nil), hand...)
	SortHand(sorted)

	var out []Combination
	out = append(out, sameRankGroupings(sorted)...)
	out = append(out, runGroupings(sorted)...)
	out = append(out, pairRunGroupings(sorted)...)
	return out
}

// LegalResponses filters a hand's groupings down to plays that beat the
// combination currently on the table. An Invalid table means an open lead,
// where every grouping is legal.
func LegalResponses(rules Rules, hand []domain.Card, table Combination) []Combination {
	var out []Combination
	for _, g := range Groupings(hand) {
		if CanBeat(rules, table, g) {
			out = append(out, g)
		}
	}
	return out
}

func sameRankGroupings(sorted []domain.Card) []Combination {
	byRank := make(map[domain.Rank][]domain.Card)
	for _, c := range sorted {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}

	ranks := make([]domain.Rank, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool { return rankOrder(ranks[i]) < rankOrder(ranks[j]) })

	var out []Combination
	for _, r := range ranks {
		cards := byRank[r]
		for k := 1; k <= len(cards) && k <= 4; k++ {
			for _, subset := range kSubsets(cards, k) {
				out = append(out, Identify(subset))
			}
		}
	}
	return out
}

// kSubsets generates every k-card subset of cards iteratively.
func kSubsets(cards []domain.Card, k int) [][]domain.Card {
	n := len(cards)
	if k > n {
		return nil
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	var out [][]domain.Card
	for {
		pick := make([]domain.Card, k)
		for i, j := range idx {
			pick[i] = cards[j]
		}
		out = append(out, pick)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// runGroupings finds every maximal run of consecutive ranks (deuce excluded)
// and emits every sub-run of length >= 3, one card per rank.
func runGroupings(sorted []domain.Card) []Combination {
	byOrder := make(map[int][]domain.Card)
	var orders []int
	for _, c := range sorted {
		o := rankOrder(c.Rank)
		if o == deuceOrder {
			continue
		}
		if _, seen := byOrder[o]; !seen {
			orders = append(orders, o)
		}
		byOrder[o] = append(byOrder[o], c)
	}
	sort.Ints(orders)

	var out []Combination
	start := 0
	for start < len(orders) {
		end := start
		for end+1 < len(orders) && orders[end+1] == orders[end]+1 {
			end++
		}
		// orders[start..end] is a maximal run; emit all sub-runs length >= 3.
		for lo := start; lo <= end; lo++ {
			for hi := lo + 2; hi <= end; hi++ {
				cards := make([]domain.Card, 0, hi-lo+1)
				for p := lo; p <= hi; p++ {
					cards = append(cards, byOrder[orders[p]][0])
				}
				out = append(out, Identify(cards))
			}
		}
		start = end + 1
	}
	return out
}

// pairRunGroupings emits every consecutive-pair run of 3..6 pairs.
func pairRunGroupings(sorted []domain.Card) []Combination {
	byOrder := make(map[int][]domain.Card)
	var orders []int
	for _, c := range sorted {
		o := rankOrder(c.Rank)
		if o == deuceOrder {
			continue
		}
		if _, seen := byOrder[o]; !seen {
			orders = append(orders, o)
		}
		byOrder[o] = append(byOrder[o], c)
	}
	sort.Ints(orders)

	// Keep only ranks holding a pair or better.
	pairOrders := orders[:0]
	for _, o := range orders {
		if len(byOrder[o]) >= 2 {
			pairOrders = append(pairOrders, o)
		}
	}

	var out []Combination
	start := 0
	for start < len(pairOrders) {
		end := start
		for end+1 < len(pairOrders) && pairOrders[end+1] == pairOrders[end]+1 {
			end++
		}
		for lo := start; lo <= end; lo++ {
			for hi := lo + 2; hi <= end; hi++ {
				cards := make([]domain.Card, 0, (hi-lo+1)*2)
				for p := lo; p <= hi; p++ {
					cards = append(cards, byOrder[pairOrders[p]][:2]...)
				}
				out = append(out, Identify(cards))
			}
		}
		start = end + 1
	}
	return out
}
