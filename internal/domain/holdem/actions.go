package holdem

import "cardroom/internal/domain"

// Intent type tags understood by the engine.
const (
	IntentFold  = "holdem/fold"
	IntentCheck = "holdem/check"
	IntentCall  = "holdem/call"
	IntentRaise = "holdem/raise"
)

// Action is the closed set of player actions.
type Action interface{ isAction() }

// FoldAction surrenders the hand.
type FoldAction struct{}

// CheckAction passes without committing chips.
type CheckAction struct{}

// CallAction matches the outstanding bet.
type CallAction struct{}

// RaiseAction raises the street's bet to a new total.
type RaiseAction struct {
	To int64 `json:"to"`
}

func (FoldAction) isAction()  {}
func (CheckAction) isAction() {}
func (CallAction) isAction()  {}
func (RaiseAction) isAction() {}

// DecodeAction maps a wire intent onto the closed action types.
func DecodeAction(in domain.Intent) (Action, error) {
	switch in.Type {
	case IntentFold:
		return FoldAction{}, nil
	case IntentCheck:
		return CheckAction{}, nil
	case IntentCall:
		return CallAction{}, nil
	case IntentRaise:
		var a RaiseAction
		if err := in.DecodePayload(&a); err != nil {
			return nil, err
		}
		return a, nil
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
	case FoldAction:
		return e.Fold(in.Actor)
	case CheckAction:
		return e.Check(in.Actor)
	case CallAction:
		return e.Call(in.Actor)
	case RaiseAction:
		return e.Raise(in.Actor, a.To)
	default:
		return domain.ErrUnknownIntent
	}
}
