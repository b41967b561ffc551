// Package gin implements the two-player draw-and-discard meld game: draw
// from stock or pile, discard, and knock at ten deadwood or less.
package gin

import (
	"sort"

	"cardroom/internal/domain"
)

// CardValue is a card's deadwood cost: aces one, faces ten.
func CardValue(c domain.Card) int {
	v := int(c.Rank)
	if v > 10 {
		v = 10
	}
	return v
}

// meld candidates are bitmasks over the hand; hands never exceed 11 cards.
type meldMask uint16

// BestMelds finds the meld partition minimizing deadwood and returns the
// chosen melds plus the leftover value.
func BestMelds(hand []domain.Card) ([][]domain.Card, int) {
	candidates := meldCandidates(hand)
	best := handValue(hand, 0)

	var bestPicked []meldMask
	var search func(from int, used meldMask, picked []meldMask)
	search = func(from int, used meldMask, picked []meldMask) {
		if v := handValue(hand, used); v < best {
			best = v
			bestPicked = append([]meldMask(nil), picked...)
		}
		for i := from; i < len(candidates); i++ {
			if candidates[i]&used != 0 {
				continue
			}
			search(i+1, used|candidates[i], append(picked, candidates[i]))
		}
	}
	search(0, 0, nil)

	melds := make([][]domain.Card, 0, len(bestPicked))
	for _, m := range bestPicked {
		var cards []domain.Card
		for i := range hand {
			if m&(1<<uint(i)) != 0 {
				cards = append(cards, hand[i])
			}
		}
		melds = append(melds, cards)
	}
	return melds, best
}

// Deadwood is the minimum unmatched value over all meld partitions.
func Deadwood(hand []domain.Card) int {
	_, dw := BestMelds(hand)
	return dw
}

// handValue sums the deadwood of cards not covered by used melds.
func handValue(hand []domain.Card, used meldMask) int {
	total := 0
	for i, c := range hand {
		if used&(1<<uint(i)) == 0 {
			total += CardValue(c)
		}
	}
	return total
}

// meldCandidates enumerates every set and run the hand can form.
func meldCandidates(hand []domain.Card) []meldMask {
	var out []meldMask

	// Sets: three or four of the same rank.
	byRank := map[domain.Rank][]int{}
	for i, c := range hand {
		byRank[c.Rank] = append(byRank[c.Rank], i)
	}
	for _, idxs := range byRank {
		if len(idxs) >= 3 {
			for _, subset := range indexSubsets(idxs, 3) {
				out = append(out, maskOf(subset))
			}
		}
		if len(idxs) == 4 {
			out = append(out, maskOf(idxs))
		}
	}

	// Runs: three or more consecutive ranks in one suit. Ace is low.
	bySuit := map[domain.Suit][]int{}
	for i, c := range hand {
		bySuit[c.Suit] = append(bySuit[c.Suit], i)
	}
	for _, idxs := range bySuit {
		sort.Slice(idxs, func(a, b int) bool {
			return hand[idxs[a]].Rank < hand[idxs[b]].Rank
		})
		for start := 0; start < len(idxs); start++ {
			run := []int{idxs[start]}
			for next := start + 1; next < len(idxs); next++ {
				if hand[idxs[next]].Rank == hand[run[len(run)-1]].Rank+1 {
					run = append(run, idxs[next])
					if len(run) >= 3 {
						out = append(out, maskOf(run))
					}
				} else {
					break
				}
			}
		}
	}
	return out
}

// indexSubsets returns all k-element subsets of idxs.
func indexSubsets(idxs []int, k int) [][]int {
	var out [][]int
	n := len(idxs)
	pick := make([]int, k)
	for i := range pick {
		pick[i] = i
	}
	for {
		subset := make([]int, k)
		for i, p := range pick {
			subset[i] = idxs[p]
		}
		out = append(out, subset)

		i := k - 1
		for i >= 0 && pick[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		pick[i]++
		for j := i + 1; j < k; j++ {
			pick[j] = pick[j-1] + 1
		}
	}
}

func maskOf(idxs []int) meldMask {
	var m meldMask
	for _, i := range idxs {
		m |= 1 << uint(i)
	}
	return m
}
