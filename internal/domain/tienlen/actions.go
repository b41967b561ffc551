package tienlen

import (
	"cardroom/internal/domain"
)

// Intent type tags understood by the engine.
const (
	IntentPlay = "tienlen/play"
	IntentPass = "tienlen/pass"
)

// Action is the closed set of Tien Len player actions. Adding a variant
// without extending Engine.dispatch fails with ErrUnknownIntent at runtime
// and stands out in review; the decoder below is the only constructor path.
type Action interface{ isAction() }

// PlayAction plays a combination of cards.
type PlayAction struct {
	Cards []domain.Card `json:"cards"`
}

// PassAction declines to beat the table for this trick.
type PassAction struct{}

func (PlayAction) isAction() {}
func (PassAction) isAction() {}

// DecodeAction maps a wire intent onto the closed action type.
func DecodeAction(in domain.Intent) (Action, error) {
	switch in.Type {
	case IntentPlay:
		var a PlayAction
		if err := in.DecodePayload(&a); err != nil {
			return nil, err
		}
		return a, nil
	case IntentPass:
		return PassAction{}, nil
	default:
		return nil, domain.ErrUnknownIntent
	}
}

// Apply decodes and dispatches a wire intent. It is the engine's single
// entry point for the replication layer.
func (e *Engine) Apply(in domain.Intent) error {
	action, err := DecodeAction(in)
	if err != nil {
		return err
	}
	return e.dispatch(in.Actor, action)
}

func (e *Engine) dispatch(actor string, action Action) error {
	switch a := action.(type) {
	case PlayAction:
		return e.PlayCards(actor, a.Cards)
	case PassAction:
		return e.Pass(actor)
	default:
		return domain.ErrUnknownIntent
	}
}
