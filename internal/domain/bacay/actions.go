package bacay

import "cardroom/internal/domain"

// Intent type tags understood by the engine.
const (
	IntentBet  = "bacay/bet"
	IntentDraw = "bacay/draw"
	IntentStay = "bacay/stay"
)

// Action is the closed set of player actions.
type Action interface{ isAction() }

// BetAction places the pre-deal bet for a non-dealer seat.
type BetAction struct {
	Amount int64 `json:"amount"`
}

// DrawAction takes the optional third card.
type DrawAction struct{}

// StayAction keeps the two-card hand.
type StayAction struct{}

func (BetAction) isAction()  {}
func (DrawAction) isAction() {}
func (StayAction) isAction() {}

// DecodeAction maps a wire intent onto the closed action type.
func DecodeAction(in domain.Intent) (Action, error) {
	switch in.Type {
	case IntentBet:
		var a BetAction
		if err := in.DecodePayload(&a); err != nil {
			return nil, err
		}
		return a, nil
	case IntentDraw:
		return DrawAction{}, nil
	case IntentStay:
		return StayAction{}, nil
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
	case DrawAction:
		return e.Draw(in.Actor)
	case StayAction:
		return e.Stay(in.Actor)
	default:
		return domain.ErrUnknownIntent
	}
}
