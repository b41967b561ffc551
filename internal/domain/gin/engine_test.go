package gin

import (
	"math/rand"
	"testing"

	"cardroom/internal/domain"
)

func newMatch(t *testing.T) *Engine {
	t.Helper()
	e, err := New(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range []string{"dealer", "u2"} {
		if err := e.AddPlayer(id, id); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
	}
	if err := e.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	return e
}

func TestStartRoundLayout(t *testing.T) {
	e := newMatch(t)
	st := e.State()
	if st.Phase != PhaseDraw {
		t.Fatalf("phase = %s, want draw", st.Phase)
	}
	for _, p := range st.Players {
		if len(p.Hand) != 10 {
			t.Fatalf("player %s hand = %d, want 10", p.ID, len(p.Hand))
		}
	}
	if len(st.Pile) != 1 {
		t.Fatalf("pile = %d cards, want the upcard", len(st.Pile))
	}
	if st.Current != 1 {
		t.Fatalf("first draw = seat %d, want the non-dealer", st.Current)
	}
}

func TestThirdSeatRejected(t *testing.T) {
	e, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = e.AddPlayer("a", "a")
	_ = e.AddPlayer("b", "b")
	if err := e.AddPlayer("c", "c"); err != domain.ErrTableFull {
		t.Fatalf("third seat = %v, want ErrTableFull", err)
	}
}

func TestDrawDiscardLoop(t *testing.T) {
	e := newMatch(t)
	st := e.State()

	if err := e.DrawStock("dealer"); err != domain.ErrNotYourTurn {
		t.Fatalf("out of turn draw = %v, want ErrNotYourTurn", err)
	}
	if err := e.DrawStock("u2"); err != nil {
		t.Fatalf("DrawStock: %v", err)
	}
	if got := len(st.Players[1].Hand); got != 11 {
		t.Fatalf("hand after draw = %d, want 11", got)
	}
	if st.Phase != PhaseDiscard {
		t.Fatalf("phase = %s, want discard", st.Phase)
	}
	if err := e.DrawStock("u2"); err != domain.ErrWrongPhase {
		t.Fatalf("second draw = %v, want ErrWrongPhase", err)
	}

	toss := st.Players[1].Hand[0]
	if err := e.Discard("u2", toss); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if got := len(st.Players[1].Hand); got != 10 {
		t.Fatalf("hand after discard = %d, want 10", got)
	}
	if st.Current != 0 || st.Phase != PhaseDraw {
		t.Fatalf("turn = %d/%s, want the dealer to draw", st.Current, st.Phase)
	}
	if !st.Pile[len(st.Pile)-1].Same(toss) {
		t.Fatal("discard must sit on top of the pile")
	}
}

func TestPileDrawCannotBounceBack(t *testing.T) {
	e := newMatch(t)
	st := e.State()
	up := st.Pile[0]

	if err := e.DrawPile("u2"); err != nil {
		t.Fatalf("DrawPile: %v", err)
	}
	if err := e.Discard("u2", up); err != ErrDiscardDrawn {
		t.Fatalf("bounce discard = %v, want ErrDiscardDrawn", err)
	}
	other := st.Players[1].Hand[0]
	if other.Same(up) {
		other = st.Players[1].Hand[1]
	}
	if err := e.Discard("u2", other); err != nil {
		t.Fatalf("Discard: %v", err)
	}
}

func TestKnockScoresDifference(t *testing.T) {
	e := newMatch(t)
	st := e.State()
	st.Phase = PhaseDiscard
	st.Current = 1
	st.PileDrawn = nil
	st.Players[1].Hand = []domain.Card{ // three melds plus a seven, knocking away the king
		gc(2, domain.Spades), gc(3, domain.Spades), gc(4, domain.Spades),
		gc(5, domain.Hearts), gc(5, domain.Diamonds), gc(5, domain.Clubs),
		gc(9, domain.Spades), gc(9, domain.Hearts), gc(9, domain.Diamonds),
		gc(7, domain.Clubs), gc(domain.King, domain.Diamonds),
	}
	st.Players[0].Hand = []domain.Card{ // meldless, 64 deadwood
		gc(domain.King, domain.Spades), gc(domain.Queen, domain.Hearts), gc(domain.Jack, domain.Clubs),
		gc(10, domain.Spades), gc(8, domain.Diamonds), gc(6, domain.Hearts),
		gc(4, domain.Diamonds), gc(3, domain.Hearts), gc(2, domain.Diamonds),
		gc(domain.Ace, domain.Clubs),
	}

	if err := e.Knock("u2", gc(domain.King, domain.Diamonds)); err != nil {
		t.Fatalf("Knock: %v", err)
	}
	if st.Phase != PhaseSettled {
		t.Fatalf("phase = %s, want settled", st.Phase)
	}
	if st.Players[1].Deadwood != 7 || st.Players[0].Deadwood != 64 {
		t.Fatalf("deadwood = %d vs %d", st.Players[1].Deadwood, st.Players[0].Deadwood)
	}
	if st.Payouts["u2"] != 57 || st.Payouts["dealer"] != -57 {
		t.Fatalf("payouts = %v", st.Payouts)
	}
}

func TestUndercutBeatsTheKnocker(t *testing.T) {
	e := newMatch(t)
	st := e.State()
	st.Phase = PhaseDiscard
	st.Current = 1
	st.Players[1].Hand = []domain.Card{ // knocks at exactly ten deadwood
		gc(2, domain.Spades), gc(3, domain.Spades), gc(4, domain.Spades),
		gc(6, domain.Hearts), gc(6, domain.Diamonds), gc(6, domain.Clubs),
		gc(domain.Jack, domain.Spades), gc(domain.Jack, domain.Hearts), gc(domain.Jack, domain.Diamonds),
		gc(10, domain.Clubs), gc(domain.King, domain.Diamonds),
	}
	st.Players[0].Hand = []domain.Card{ // five deadwood undercuts
		gc(7, domain.Spades), gc(8, domain.Spades), gc(9, domain.Spades),
		gc(domain.Queen, domain.Hearts), gc(domain.Queen, domain.Diamonds), gc(domain.Queen, domain.Clubs),
		gc(domain.Ace, domain.Hearts), gc(2, domain.Hearts), gc(3, domain.Hearts),
		gc(5, domain.Diamonds),
	}

	if err := e.Knock("u2", gc(domain.King, domain.Diamonds)); err != nil {
		t.Fatalf("Knock: %v", err)
	}
	if st.Payouts["dealer"] != 30 || st.Payouts["u2"] != -30 {
		t.Fatalf("payouts = %v, want the undercut bonus", st.Payouts)
	}
}

func TestGinTakesTheBonusAndCannotBeUndercut(t *testing.T) {
	e := newMatch(t)
	st := e.State()
	st.Phase = PhaseDiscard
	st.Current = 1
	st.Players[1].Hand = []domain.Card{ // ten melded cards after the discard
		gc(2, domain.Spades), gc(3, domain.Spades), gc(4, domain.Spades), gc(5, domain.Spades),
		gc(8, domain.Hearts), gc(8, domain.Diamonds), gc(8, domain.Clubs),
		gc(domain.King, domain.Spades), gc(domain.King, domain.Hearts), gc(domain.King, domain.Diamonds),
		gc(9, domain.Clubs),
	}
	st.Players[0].Hand = []domain.Card{ // 68 deadwood
		gc(domain.Queen, domain.Spades), gc(domain.Jack, domain.Hearts), gc(10, domain.Hearts),
		gc(6, domain.Clubs), gc(4, domain.Diamonds), gc(2, domain.Diamonds),
		gc(domain.Ace, domain.Clubs), gc(9, domain.Diamonds), gc(10, domain.Diamonds),
		gc(6, domain.Diamonds),
	}

	if err := e.Knock("u2", gc(9, domain.Clubs)); err != nil {
		t.Fatalf("Knock: %v", err)
	}
	if st.Players[1].Deadwood != 0 {
		t.Fatalf("gin deadwood = %d, want 0", st.Players[1].Deadwood)
	}
	if st.Payouts["u2"] != 93 || st.Payouts["dealer"] != -93 {
		t.Fatalf("payouts = %v, want deadwood plus the gin bonus", st.Payouts)
	}
}

func TestKnockNeedsLowDeadwood(t *testing.T) {
	e := newMatch(t)
	st := e.State()
	st.Phase = PhaseDiscard
	st.Current = 1
	st.Players[1].Hand = []domain.Card{
		gc(domain.King, domain.Spades), gc(domain.Queen, domain.Hearts), gc(domain.Jack, domain.Diamonds),
		gc(10, domain.Clubs), gc(9, domain.Spades), gc(8, domain.Hearts),
		gc(6, domain.Diamonds), gc(4, domain.Clubs), gc(3, domain.Spades),
		gc(2, domain.Hearts), gc(domain.Ace, domain.Diamonds),
	}
	if err := e.Knock("u2", gc(domain.King, domain.Spades)); err != ErrCannotKnock {
		t.Fatalf("heavy knock = %v, want ErrCannotKnock", err)
	}
}

func TestStockExhaustionVoidsRound(t *testing.T) {
	e := newMatch(t)
	e.deck.Restore(domain.DeckSnapshot{}) // empty stock

	if err := e.DrawStock("u2"); err != nil {
		t.Fatalf("DrawStock: %v", err)
	}
	st := e.State()
	if st.Phase != PhaseSettled || !st.Void {
		t.Fatalf("phase/void = %s/%v, want a void round", st.Phase, st.Void)
	}
	if st.Payouts["dealer"] != 0 || st.Payouts["u2"] != 0 {
		t.Fatalf("payouts = %v, want nobody to score", st.Payouts)
	}
}

func TestDealerAlternates(t *testing.T) {
	e := newMatch(t)
	e.State().Phase = PhaseSettled
	if err := e.StartRound(); err != nil {
		t.Fatalf("round 2: %v", err)
	}
	if e.State().Dealer != 1 {
		t.Fatalf("dealer = %d, want 1", e.State().Dealer)
	}
	if e.State().Current != 0 {
		t.Fatalf("first draw = %d, want the new non-dealer", e.State().Current)
	}
}

func TestApplyDispatch(t *testing.T) {
	e := newMatch(t)
	if err := e.Apply(domain.Intent{Type: "holdem/call", Actor: "u2"}); err != domain.ErrUnknownIntent {
		t.Fatalf("foreign intent = %v, want ErrUnknownIntent", err)
	}
	if err := e.Apply(domain.Intent{Type: IntentDrawStock, Actor: "u2"}); err != nil {
		t.Fatalf("draw via intent: %v", err)
	}
	if e.State().Phase != PhaseDiscard {
		t.Fatal("intent dispatch must reach the engine")
	}
}
