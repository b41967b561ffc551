package holdem

import (
	"math/rand"
	"testing"

	"cardroom/internal/domain"
	"cardroom/internal/domain/poker"
)

func hc(rank domain.Rank, suit domain.Suit) domain.Card {
	return domain.Card{Suit: suit, Rank: rank}
}

func newTable(t *testing.T, players ...string) *Engine {
	t.Helper()
	e, err := New(5, 10, 1000, rand.New(rand.NewSource(42)))
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

func TestBlindsAndFirstToAct(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	st := e.State()
	if st.Players[1].Bet != 5 || st.Players[2].Bet != 10 {
		t.Fatalf("blinds = %d/%d, want 5/10 left of the button", st.Players[1].Bet, st.Players[2].Bet)
	}
	if st.Current != 0 {
		t.Fatalf("first to act = %d, want seat 0 under the gun", st.Current)
	}
	if st.CurrentBet != 10 || st.MinRaise != 10 {
		t.Fatalf("current bet/min raise = %d/%d, want 10/10", st.CurrentBet, st.MinRaise)
	}
	for _, p := range st.Players {
		if len(p.Hole) != 2 {
			t.Fatalf("player %s hole = %d cards, want 2", p.ID, len(p.Hole))
		}
	}
}

func TestHeadsUpButtonPostsSmallBlind(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	st := e.State()
	if st.Players[0].Bet != 5 || st.Players[1].Bet != 10 {
		t.Fatalf("blinds = %d/%d, want button small blind", st.Players[0].Bet, st.Players[1].Bet)
	}
	if st.Current != 0 {
		t.Fatalf("first to act = %d, want the button preflop", st.Current)
	}
}

func TestMinRaiseEnforced(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.Raise("dealer", 15); err != ErrRaiseTooSmall {
		t.Fatalf("undersized raise = %v, want ErrRaiseTooSmall", err)
	}
	if err := e.Raise("dealer", 20); err != nil {
		t.Fatalf("full raise: %v", err)
	}
	st := e.State()
	if st.CurrentBet != 20 || st.MinRaise != 10 {
		t.Fatalf("after raise: bet/min = %d/%d, want 20/10", st.CurrentBet, st.MinRaise)
	}
	// The raise reopened action for the blinds.
	if st.Players[1].Acted || st.Players[2].Acted {
		t.Fatal("raise must reopen action for players yet to match it")
	}
	if err := e.Raise("u2", 25); err != ErrRaiseTooSmall {
		t.Fatalf("re-raise below minimum = %v, want ErrRaiseTooSmall", err)
	}
	if err := e.Raise("u2", 30); err != nil {
		t.Fatalf("legal re-raise: %v", err)
	}
}

func TestCheckFacingBetRejected(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.Check("dealer"); err != ErrCannotCheck {
		t.Fatalf("check facing big blind = %v, want ErrCannotCheck", err)
	}
	if err := e.Call("u2"); err != domain.ErrNotYourTurn {
		t.Fatalf("out of turn = %v, want ErrNotYourTurn", err)
	}
}

func TestFoldWinAwardsPot(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.Fold("dealer"); err != nil {
		t.Fatalf("Fold: %v", err)
	}
	st := e.State()
	if st.Phase != PhaseSettled {
		t.Fatalf("phase = %s, want settled", st.Phase)
	}
	if st.Payouts["u2"] != 5 || st.Payouts["dealer"] != -5 {
		t.Fatalf("payouts = %v, want u2 to win the small blind", st.Payouts)
	}
	if st.Players[1].Chips != 1005 || st.Players[0].Chips != 995 {
		t.Fatalf("stacks = %d/%d after fold win", st.Players[0].Chips, st.Players[1].Chips)
	}
}

func TestCheckedDownHandSettlesZeroSum(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	st := e.State()
	for st.Phase != PhaseSettled {
		actor := st.Players[st.Current].ID
		var err error
		if st.Players[st.Current].Bet < st.CurrentBet {
			err = e.Call(actor)
		} else {
			err = e.Check(actor)
		}
		if err != nil {
			t.Fatalf("%s in %s: %v", actor, st.Phase, err)
		}
	}
	if len(st.Community) != 5 {
		t.Fatalf("community = %d cards, want 5", len(st.Community))
	}
	var sum int64
	var chips int64
	for _, v := range st.Payouts {
		sum += v
	}
	for _, p := range st.Players {
		chips += p.Chips
	}
	if sum != 0 {
		t.Fatalf("payout sum = %d, want 0", sum)
	}
	if chips != 3000 {
		t.Fatalf("chips in play = %d, want 3000", chips)
	}
}

// A seat that folded the previous hand still takes its turn on the button.
func TestButtonRotationIgnoresLastHandFolds(t *testing.T) {
	e := newTable(t, "a", "b", "c", "d")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	st := e.State()
	for st.Phase != PhaseSettled {
		actor := st.Players[st.Current].ID
		var err error
		switch {
		case actor == "b" && !st.Players[1].Folded:
			err = e.Fold(actor)
		case st.Players[st.Current].Bet < st.CurrentBet:
			err = e.Call(actor)
		default:
			err = e.Check(actor)
		}
		if err != nil {
			t.Fatalf("%s in %s: %v", actor, st.Phase, err)
		}
	}
	if err := e.StartRound(); err != nil {
		t.Fatalf("second StartRound: %v", err)
	}
	if st.Dealer != 1 {
		t.Fatalf("button = %d, want seat 1 next in order", st.Dealer)
	}
}

func TestShowdownBestHandWins(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	// Rig a river spot: bets already matched, dealer closes with a check.
	st := e.State()
	st.Phase = PhaseRiver
	st.Community = []domain.Card{
		hc(2, domain.Spades), hc(7, domain.Diamonds), hc(9, domain.Clubs),
		hc(domain.Jack, domain.Hearts), hc(3, domain.Clubs),
	}
	st.Players[0].Hole = []domain.Card{hc(domain.Ace, domain.Spades), hc(domain.Ace, domain.Hearts)}
	st.Players[1].Hole = []domain.Card{hc(domain.Jack, domain.Diamonds), hc(domain.Jack, domain.Spades)}
	st.Players[2].Hole = []domain.Card{hc(domain.King, domain.Spades), hc(domain.Queen, domain.Diamonds)}
	st.Pot = 300
	st.CurrentBet = 0
	st.Current = 0
	for i, p := range st.Players {
		p.Bet = 0
		p.Contrib = 100
		p.Acted = i != 0
	}

	if err := e.Check("dealer"); err != nil {
		t.Fatalf("closing check: %v", err)
	}
	if st.Phase != PhaseSettled {
		t.Fatalf("phase = %s, want settled", st.Phase)
	}
	if st.Payouts["u2"] != 200 || st.Payouts["dealer"] != -100 || st.Payouts["u3"] != -100 {
		t.Fatalf("payouts = %v", st.Payouts)
	}
	if st.Players[1].Result.Category != poker.ThreeOfAKind {
		t.Fatalf("winner category = %v, want three of a kind", st.Players[1].Result.Category)
	}
}

func TestBoardPlaysSplitsPot(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	st := e.State()
	st.Phase = PhaseRiver
	st.Community = []domain.Card{ // royal flush on the board
		hc(domain.Ace, domain.Spades), hc(domain.King, domain.Spades),
		hc(domain.Queen, domain.Spades), hc(domain.Jack, domain.Spades),
		hc(10, domain.Spades),
	}
	st.Players[0].Hole = []domain.Card{hc(2, domain.Hearts), hc(3, domain.Hearts)}
	st.Players[1].Hole = []domain.Card{hc(2, domain.Diamonds), hc(3, domain.Diamonds)}
	st.Pot = 20
	st.CurrentBet = 0
	st.Current = 0
	for i, p := range st.Players {
		p.Bet = 0
		p.Contrib = 10
		p.Acted = i != 0
	}

	if err := e.Check("dealer"); err != nil {
		t.Fatalf("closing check: %v", err)
	}
	if st.Payouts["dealer"] != 0 || st.Payouts["u2"] != 0 {
		t.Fatalf("payouts = %v, want a chopped pot", st.Payouts)
	}
}

func TestAllInRunsBoardOut(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	st := e.State()
	st.Players[0].Chips = 50 // shove stack after posting the small blind

	if err := e.Raise("dealer", 55); err != nil {
		t.Fatalf("all-in raise: %v", err)
	}
	if !st.Players[0].AllIn {
		t.Fatal("raiser must be all-in")
	}
	if err := e.Call("u2"); err != nil {
		t.Fatalf("call: %v", err)
	}

	if st.Phase != PhaseSettled {
		t.Fatalf("phase = %s, want settled after the board runs out", st.Phase)
	}
	if len(st.Community) != 5 {
		t.Fatalf("community = %d cards, want 5", len(st.Community))
	}
	var sum int64
	for _, v := range st.Payouts {
		sum += v
	}
	if sum != 0 {
		t.Fatalf("payout sum = %d, want 0", sum)
	}
}

func TestApplyUnknownIntent(t *testing.T) {
	e := newTable(t, "dealer", "u2")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.Apply(domain.Intent{Type: "tienlen/play", Actor: "dealer"}); err != domain.ErrUnknownIntent {
		t.Fatalf("foreign intent = %v, want ErrUnknownIntent", err)
	}
	if err := e.Apply(domain.Intent{Type: IntentCall, Actor: "dealer"}); err != nil {
		t.Fatalf("call via intent: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := newTable(t, "dealer", "u2", "u3")
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	if err := e.Call("dealer"); err != nil {
		t.Fatalf("Call: %v", err)
	}

	data, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	mirror, err := New(5, 10, 1000, nil)
	if err != nil {
		t.Fatalf("New mirror: %v", err)
	}
	if err := mirror.Restore(data); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	again, err := mirror.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot mirror: %v", err)
	}
	if string(data) != string(again) {
		t.Fatal("restored snapshot must re-serialize identically")
	}
}
