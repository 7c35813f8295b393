package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"diagramador-collab-server/domain"
)

var ErrMissingTarget = errors.New("signal without target")

type rawEnvelope struct {
	Type    string          `json:"type"`
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses one inbound canvas message. Unrecognised tags decode to
// domain.UnknownRequest rather than an error.
func Decode(data []byte) (domain.Inbound, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch raw.Type {
	case domain.TypeBroadcast:
		return domain.BroadcastRequest{Payload: raw.Payload}, nil
	case domain.TypeSignal:
		if raw.To == "" {
			return nil, ErrMissingTarget
		}
		return domain.SignalRequest{To: raw.To, Payload: raw.Payload}, nil
	default:
		return domain.UnknownRequest{Type: raw.Type}, nil
	}
}

func presence(action, peer string) ([]byte, error) {
	return json.Marshal(domain.PresenceMessage{Type: domain.TypePresence, Action: action, Peer: peer})
}
