package domain

import (
	"encoding/json"
	"errors"
)

// Rule-violation sentinels shared by every engine. Violations of expected
// game rules are reported through these, never through panics.
var (
	ErrWrongPhase     = errors.New("action not valid in current phase")
	ErrNotYourTurn    = errors.New("actor is not the current player")
	ErrUnknownPlayer  = errors.New("player not found")
	ErrUnknownIntent  = errors.New("unknown intent type")
	ErrPlayerFinished = errors.New("player already finished")
	ErrTableFull      = errors.New("table is full")
	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrBadPayload     = errors.New("malformed intent payload")
)

// Intent is the wire envelope for a player action: a type tag, the acting
// player's id and a type-specific payload. Engines decode it into their own
// closed action type and reject unknown tags.
type Intent struct {
	Type    string          `json:"type"`
	Actor   string          `json:"actor"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewIntent marshals payload and wraps it in an Intent envelope. Payloads
// that are already JSON bytes are carried as-is, not re-marshaled.
func NewIntent(typ, actor string, payload any) (Intent, error) {
	switch p := payload.(type) {
	case nil:
		return Intent{Type: typ, Actor: actor}, nil
	case json.RawMessage:
		return Intent{Type: typ, Actor: actor, Payload: p}, nil
	case []byte:
		return Intent{Type: typ, Actor: actor, Payload: json.RawMessage(p)}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, err
	}
	return Intent{Type: typ, Actor: actor, Payload: raw}, nil
}

// DecodePayload unmarshals the intent payload into dst, mapping decode
// failures onto ErrBadPayload.
func (in Intent) DecodePayload(dst any) error {
	if len(in.Payload) == 0 {
		return ErrBadPayload
	}
	if err := json.Unmarshal(in.Payload, dst); err != nil {
		return ErrBadPayload
	}
	return nil
}
