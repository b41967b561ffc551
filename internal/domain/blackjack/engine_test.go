package blackjack

import (
	"errors"
	"math/rand"
	"testing"

	"cardroom/internal/domain"
)

func jc(rank domain.Rank, suit domain.Suit) domain.Card {
	return domain.Card{Suit: suit, Rank: rank}
}

func newTable(t *testing.T, players ...string) *Engine {
	t.Helper()
	e, err := New(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range players {
		if err := e.AddPlayer(id, id); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
	}
	return e
}

// rig puts the table into the acting phase with hand-picked cards; seat 0
// is the dealer and seat 1 is about to act.
func rig(e *Engine, dealer []domain.Card, hands ...[]domain.Card) {
	st := e.State()
	st.Phase = PhaseActing
	st.Current = 1
	st.Players[0].Hands = []*Hand{{Cards: dealer}}
	for i, cards := range hands {
		st.Players[i+1].Hands = []*Hand{{Cards: cards, Bet: 10}}
		st.Players[i+1].Active = 0
	}
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		cards []domain.Card
		total int
		soft  bool
	}{
		{"hard nineteen", []domain.Card{jc(10, domain.Spades), jc(9, domain.Hearts)}, 19, false},
		{"soft seventeen", []domain.Card{jc(domain.Ace, domain.Spades), jc(6, domain.Hearts)}, 17, true},
		{"ace forced low", []domain.Card{jc(domain.Ace, domain.Spades), jc(6, domain.Hearts), jc(10, domain.Clubs)}, 17, false},
		{"two aces", []domain.Card{jc(domain.Ace, domain.Spades), jc(domain.Ace, domain.Hearts)}, 12, true},
		{"soft twenty-one", []domain.Card{jc(domain.Ace, domain.Spades), jc(domain.Ace, domain.Hearts), jc(9, domain.Clubs)}, 21, true},
		{"faces bust", []domain.Card{jc(domain.King, domain.Spades), jc(domain.Queen, domain.Hearts), jc(2, domain.Clubs)}, 22, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, soft := HandValue(tt.cards)
			if total != tt.total || soft != tt.soft {
				t.Errorf("HandValue = %d/%v, want %d/%v", total, soft, tt.total, tt.soft)
			}
		})
	}
}

func TestTwoDeckShoe(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if got := e.deck.Size(); got != 104 {
		t.Fatalf("shoe size = %d, want 104", got)
	}
}

func TestBettingPreconditions(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.PlaceBet("u2", 10); err != domain.ErrWrongPhase {
		t.Fatalf("bet before round = %v, want ErrWrongPhase", err)
	}
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.PlaceBet("dealer", 10); err != ErrDealerBets {
		t.Fatalf("dealer bet = %v, want ErrDealerBets", err)
	}
	if err := e.PlaceBet("u2", 0); err != ErrBadBet {
		t.Fatalf("zero bet = %v, want ErrBadBet", err)
	}
	if err := e.PlaceBet("u2", 10); err != nil {
		t.Fatalf("first bet: %v", err)
	}
	if err := e.PlaceBet("u2", 10); err != ErrAlreadyBet {
		t.Fatalf("double bet = %v, want ErrAlreadyBet", err)
	}
}

func TestLastBetDeals(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.PlaceBet("u2", 10); err != nil {
		t.Fatalf("PlaceBet(u2): %v", err)
	}
	if e.State().Phase != PhaseBetting {
		t.Fatal("deal must wait for every bet")
	}
	if err := e.PlaceBet("u3", 20); err != nil {
		t.Fatalf("PlaceBet(u3): %v", err)
	}
	st := e.State()
	if st.Phase == PhaseBetting {
		t.Fatalf("phase = %s after last bet", st.Phase)
	}
	for _, p := range st.Players {
		if len(p.Hands) != 1 || len(p.Hands[0].Cards) != 2 {
			t.Fatalf("player %s dealt %d hands", p.ID, len(p.Hands))
		}
	}
}

func TestStandSettlesAgainstDealer(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)},  // 17, stands pat
		[]domain.Card{jc(10, domain.Spades), jc(9, domain.Hearts)}, // 19
	)
	if err := e.Stand("u2"); err != nil {
		t.Fatalf("Stand: %v", err)
	}
	st := e.State()
	if st.Phase != PhaseSettled {
		t.Fatalf("phase = %s, want settled", st.Phase)
	}
	if st.Payouts["u2"] != 10 || st.Payouts["dealer"] != -10 {
		t.Fatalf("payouts = %v", st.Payouts)
	}
}

func TestHitCanBust(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)},
		[]domain.Card{jc(domain.King, domain.Spades), jc(domain.Queen, domain.Spades)}, // 20
	)
	// Stack the shoe so the hit card is a king.
	e.deck.Restore(domain.DeckSnapshot{Undealt: []domain.Card{jc(domain.King, domain.Hearts)}})

	if err := e.Hit("u2"); err != nil {
		t.Fatalf("Hit: %v", err)
	}
	st := e.State()
	if !st.Players[1].Hands[0].Busted {
		t.Fatal("thirty must bust")
	}
	if st.Phase != PhaseSettled || st.Payouts["u2"] != -10 {
		t.Fatalf("phase/payouts = %s/%v", st.Phase, st.Payouts)
	}
}

func TestDoubleDrawsOnceAndStands(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(8, domain.Clubs)}, // 18
		[]domain.Card{jc(5, domain.Spades), jc(6, domain.Spades)}, // 11
	)
	e.deck.Restore(domain.DeckSnapshot{Undealt: []domain.Card{jc(10, domain.Hearts)}})

	if err := e.Double("u2"); err != nil {
		t.Fatalf("Double: %v", err)
	}
	st := e.State()
	h := st.Players[1].Hands[0]
	if !h.Doubled || h.Bet != 20 || len(h.Cards) != 3 {
		t.Fatalf("hand after double = %+v", h)
	}
	if st.Payouts["u2"] != 20 || st.Payouts["dealer"] != -20 {
		t.Fatalf("payouts = %v, want doubled win", st.Payouts)
	}
}

func TestDoubleNeedsTwoCards(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)},
		[]domain.Card{jc(2, domain.Spades), jc(3, domain.Spades)},
	)
	e.deck.Restore(domain.DeckSnapshot{Undealt: []domain.Card{jc(2, domain.Hearts)}})
	if err := e.Hit("u2"); err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if err := e.Double("u2"); err != ErrCannotDouble {
		t.Fatalf("double on three cards = %v, want ErrCannotDouble", err)
	}
}

func TestSplitPlaysBothHands(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)}, // 17
		[]domain.Card{jc(8, domain.Spades), jc(8, domain.Hearts)},
	)
	e.deck.Restore(domain.DeckSnapshot{Undealt: []domain.Card{jc(3, domain.Diamonds), jc(2, domain.Diamonds)}})

	if err := e.Split("u2"); err != nil {
		t.Fatalf("Split: %v", err)
	}
	st := e.State()
	p := st.Players[1]
	if len(p.Hands) != 2 || !p.Hands[0].FromSplit || !p.Hands[1].FromSplit {
		t.Fatalf("hands after split = %+v", p.Hands)
	}
	if err := e.Split("u2"); err != ErrCannotSplit {
		t.Fatalf("second split = %v, want ErrCannotSplit", err)
	}

	// Both ten and eleven lose to the dealer's seventeen.
	if err := e.Stand("u2"); err != nil {
		t.Fatalf("stand first hand: %v", err)
	}
	if err := e.Stand("u2"); err != nil {
		t.Fatalf("stand second hand: %v", err)
	}
	if st.Phase != PhaseSettled || st.Payouts["u2"] != -20 || st.Payouts["dealer"] != 20 {
		t.Fatalf("phase/payouts = %s/%v", st.Phase, st.Payouts)
	}
}

func TestNaturalPaysThreeToTwo(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(9, domain.Clubs)}, // 19
		[]domain.Card{jc(domain.Ace, domain.Spades), jc(domain.King, domain.Spades)},
	)
	if err := e.Stand("u2"); err != nil {
		t.Fatalf("Stand: %v", err)
	}
	st := e.State()
	if st.Payouts["u2"] != 15 || st.Payouts["dealer"] != -15 {
		t.Fatalf("payouts = %v, want three-to-two", st.Payouts)
	}
}

func TestNaturalsPush(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(domain.Ace, domain.Clubs), jc(domain.Queen, domain.Clubs)},
		[]domain.Card{jc(domain.Ace, domain.Spades), jc(domain.King, domain.Spades)},
	)
	if err := e.Stand("u2"); err != nil {
		t.Fatalf("Stand: %v", err)
	}
	st := e.State()
	if st.Payouts["u2"] != 0 || st.Payouts["dealer"] != 0 {
		t.Fatalf("payouts = %v, want a push", st.Payouts)
	}
}

func TestSurrenderForfeitsHalf(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)},
		[]domain.Card{jc(10, domain.Spades), jc(6, domain.Spades)},
	)
	if err := e.Surrender("u2"); err != nil {
		t.Fatalf("Surrender: %v", err)
	}
	st := e.State()
	if st.Payouts["u2"] != -5 || st.Payouts["dealer"] != 5 {
		t.Fatalf("payouts = %v, want half the bet", st.Payouts)
	}
}

func TestSurrenderOnlyAsFirstAction(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)},
		[]domain.Card{jc(2, domain.Spades), jc(3, domain.Spades)},
	)
	e.deck.Restore(domain.DeckSnapshot{Undealt: []domain.Card{jc(2, domain.Hearts)}})
	if err := e.Hit("u2"); err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if err := e.Surrender("u2"); err != ErrLateSurrender {
		t.Fatalf("late surrender = %v, want ErrLateSurrender", err)
	}
}

func TestDealerDrawsToSeventeen(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	rig(e,
		[]domain.Card{jc(2, domain.Clubs), jc(3, domain.Clubs)}, // 5, must draw
		[]domain.Card{jc(10, domain.Spades), jc(8, domain.Spades)}, // 18
	)
	// Dealer draws a king to fifteen, then a deuce to seventeen, then stops.
	e.deck.Restore(domain.DeckSnapshot{Undealt: []domain.Card{jc(2, domain.Hearts), jc(domain.King, domain.Hearts)}})

	if err := e.Stand("u2"); err != nil {
		t.Fatalf("Stand: %v", err)
	}
	st := e.State()
	dealerHand := st.Players[0].Hands[0]
	if v, _ := HandValue(dealerHand.Cards); v != 17 {
		t.Fatalf("dealer total = %d, want 17", v)
	}
	if len(dealerHand.Cards) != 4 {
		t.Fatalf("dealer cards = %d, want 4", len(dealerHand.Cards))
	}
	if st.Payouts["u2"] != 10 {
		t.Fatalf("payouts = %v, want eighteen to beat seventeen", st.Payouts)
	}
}

func TestApplyDispatch(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.Apply(domain.Intent{Type: "bacay/bet", Actor: "u2"}); err != domain.ErrUnknownIntent {
		t.Fatalf("foreign intent = %v, want ErrUnknownIntent", err)
	}
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)},
		[]domain.Card{jc(10, domain.Spades), jc(9, domain.Hearts)},
	)
	if err := e.Apply(domain.Intent{Type: IntentStand, Actor: "u2"}); err != nil {
		t.Fatalf("stand via intent: %v", err)
	}
	if e.State().Phase != PhaseSettled {
		t.Fatal("intent dispatch must reach the engine")
	}
}

func TestHitOnExhaustedShoeErrors(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	rig(e,
		[]domain.Card{jc(10, domain.Clubs), jc(7, domain.Clubs)},
		[]domain.Card{jc(5, domain.Spades), jc(9, domain.Hearts)},
	)
	e.deck.Restore(domain.DeckSnapshot{})
	if err := e.Hit("u2"); !errors.Is(err, domain.ErrDeckTooSmall) {
		t.Fatalf("hit on empty shoe = %v, want ErrDeckTooSmall", err)
	}
	if e.State().Players[1].Hands[0].done() {
		t.Fatal("a failed draw must not freeze the hand")
	}
}
