package blackjack

import "cardroom/internal/domain"

// Intent type tags understood by the engine.
const (
	IntentBet       = "blackjack/bet"
	IntentHit       = "blackjack/hit"
	IntentStand     = "blackjack/stand"
	IntentDouble    = "blackjack/double"
	IntentSplit     = "blackjack/split"
	IntentSurrender = "blackjack/surrender"
)

// Action is the closed set of player actions.
type Action interface{ isAction() }

// BetAction stakes the round's wager.
type BetAction struct {
	Amount int64 `json:"amount"`
}

// HitAction draws one card.
type HitAction struct{}

// StandAction ends the acting hand.
type StandAction struct{}

// DoubleAction doubles the bet, draws once and stands.
type DoubleAction struct{}

// SplitAction splits a two-card pair into two hands.
type SplitAction struct{}

// SurrenderAction forfeits half the bet before acting.
type SurrenderAction struct{}

func (BetAction) isAction()       {}
func (HitAction) isAction()       {}
func (StandAction) isAction()     {}
func (DoubleAction) isAction()    {}
func (SplitAction) isAction()     {}
func (SurrenderAction) isAction() {}

// DecodeAction maps a wire intent onto the closed action types.
func DecodeAction(in domain.Intent) (Action, error) {
	switch in.Type {
	case IntentBet:
		var a BetAction
		if err := in.DecodePayload(&a); err != nil {
			return nil, err
		}
		return a, nil
	case IntentHit:
		return HitAction{}, nil
	case IntentStand:
		return StandAction{}, nil
	case IntentDouble:
		return DoubleAction{}, nil
	case IntentSplit:
		return SplitAction{}, nil
	case IntentSurrender:
		return SurrenderAction{}, nil
	default:
		return nil, domain.ErrUnknownIntent
	}
}

// Apply decodes and dispatches a wire intent.
func (e *Engine) Apply(in domain.Intent) error {
	action, err := DecodeAction(in)
	if err != nil {
		return err
	}
	switch a := action.(type) {
	case BetAction:
		return e.PlaceBet(in.Actor, a.Amount)
	case HitAction:
		return e.Hit(in.Actor)
	case StandAction:
		return e.Stand(in.Actor)
	case DoubleAction:
		return e.Double(in.Actor)
	case SplitAction:
		return e.Split(in.Actor)
	case SurrenderAction:
		return e.Surrender(in.Actor)
	default:
		return domain.ErrUnknownIntent
	}
}
