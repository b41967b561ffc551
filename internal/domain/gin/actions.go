package gin

import "cardroom/internal/domain"

// Intent type tags understood by the engine.
const (
	IntentDrawStock = "gin/draw_stock"
	IntentDrawPile  = "gin/draw_pile"
	IntentDiscard   = "gin/discard"
	IntentKnock     = "gin/knock"
)

// Action is the closed set of player actions.
type Action interface{ isAction() }

// DrawStockAction takes the top stock card.
type DrawStockAction struct{}

// DrawPileAction takes the top of the discard pile.
type DrawPileAction struct{}

// DiscardAction puts one card on the pile and passes the turn.
type DiscardAction struct {
	Card domain.Card `json:"card"`
}

// KnockAction discards one card and ends the round on low deadwood.
type KnockAction struct {
	Card domain.Card `json:"card"`
}

func (DrawStockAction) isAction() {}
func (DrawPileAction) isAction()  {}
func (DiscardAction) isAction()   {}
func (KnockAction) isAction()     {}

// DecodeAction maps a wire intent onto the closed action types.
func DecodeAction(in domain.Intent) (Action, error) {
	switch in.Type {
	case IntentDrawStock:
		return DrawStockAction{}, nil
	case IntentDrawPile:
		return DrawPileAction{}, nil
	case IntentDiscard:
		var a DiscardAction
		if err := in.DecodePayload(&a); err != nil {
			return nil, err
		}
		return a, nil
	case IntentKnock:
		var a KnockAction
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
	case DrawStockAction:
		return e.DrawStock(in.Actor)
	case DrawPileAction:
		return e.DrawPile(in.Actor)
	case DiscardAction:
		return e.Discard(in.Actor, a.Card)
	case KnockAction:
		return e.Knock(in.Actor, a.Card)
	default:
		return domain.ErrUnknownIntent
	}
}
