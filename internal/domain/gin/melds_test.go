package gin

import (
	"testing"

	"cardroom/internal/domain"
)

func gc(rank domain.Rank, suit domain.Suit) domain.Card {
	return domain.Card{Suit: suit, Rank: rank}
}

func TestCardValue(t *testing.T) {
	if got := CardValue(gc(domain.Ace, domain.Spades)); got != 1 {
		t.Errorf("ace = %d, want 1", got)
	}
	if got := CardValue(gc(domain.King, domain.Spades)); got != 10 {
		t.Errorf("king = %d, want 10", got)
	}
	if got := CardValue(gc(7, domain.Spades)); got != 7 {
		t.Errorf("seven = %d, want 7", got)
	}
}

func TestDeadwoodNoMelds(t *testing.T) {
	hand := []domain.Card{
		gc(domain.King, domain.Spades), gc(domain.Queen, domain.Hearts),
		gc(9, domain.Diamonds), gc(2, domain.Clubs),
	}
	if got := Deadwood(hand); got != 31 {
		t.Errorf("deadwood = %d, want 31", got)
	}
}

func TestDeadwoodRunAndSet(t *testing.T) {
	hand := []domain.Card{
		gc(2, domain.Spades), gc(3, domain.Spades), gc(4, domain.Spades), // run
		gc(7, domain.Hearts), gc(7, domain.Diamonds), gc(7, domain.Clubs), // set
		gc(domain.King, domain.Hearts),
	}
	if got := Deadwood(hand); got != 10 {
		t.Errorf("deadwood = %d, want 10", got)
	}
}

// A card shared between a possible run and a possible set must go to
// whichever partition leaves less deadwood.
func TestDeadwoodOverlapPicksCheaper(t *testing.T) {
	hand := []domain.Card{
		gc(7, domain.Spades), gc(8, domain.Spades), gc(9, domain.Spades),
		gc(7, domain.Hearts), gc(7, domain.Diamonds),
	}
	// Run keeps the spare sevens (14); the set would strand 8+9 (17).
	if got := Deadwood(hand); got != 14 {
		t.Errorf("deadwood = %d, want 14", got)
	}
}

func TestDeadwoodAceLowRun(t *testing.T) {
	hand := []domain.Card{
		gc(domain.Ace, domain.Spades), gc(2, domain.Spades), gc(3, domain.Spades),
		gc(domain.King, domain.Hearts),
	}
	if got := Deadwood(hand); got != 10 {
		t.Errorf("deadwood = %d, want 10", got)
	}
	// Queen-king-ace is not a run; ace is low only.
	wrap := []domain.Card{
		gc(domain.Queen, domain.Spades), gc(domain.King, domain.Spades), gc(domain.Ace, domain.Spades),
	}
	if got := Deadwood(wrap); got != 21 {
		t.Errorf("wrap-around deadwood = %d, want 21", got)
	}
}

func TestDeadwoodFourOfAKindAndLongRun(t *testing.T) {
	hand := []domain.Card{
		gc(5, domain.Spades), gc(5, domain.Hearts), gc(5, domain.Diamonds), gc(5, domain.Clubs),
		gc(9, domain.Hearts), gc(10, domain.Hearts), gc(domain.Jack, domain.Hearts),
		gc(domain.Queen, domain.Hearts), gc(domain.King, domain.Hearts),
	}
	melds, dw := BestMelds(hand)
	if dw != 0 {
		t.Fatalf("deadwood = %d, want 0", dw)
	}
	if len(melds) != 2 {
		t.Fatalf("melds = %d, want 2", len(melds))
	}
}
