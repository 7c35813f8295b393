package protocol

import (
	"context"
	"encoding/json"
	"log/slog"

	"diagramador-collab-server/domain"
)

// CanvasRelay routes canvas traffic for every connection attached to a room:
// presence on open and close, broadcasts to the room, signals to one peer.
type CanvasRelay struct {
	registry domain.Registry
}

func NewCanvasRelay(r domain.Registry) *CanvasRelay {
	return &CanvasRelay{registry: r}
}

func (h *CanvasRelay) Open(conn domain.Connection) {
	if previous := h.registry.Join(conn.Room(), conn); previous != "" {
		h.announce(previous, conn, domain.PresenceLeave)
	}
	h.announce(conn.Room(), conn, domain.PresenceJoin)
}

// Close leaves before announcing; the departing peer is not a recipient.
func (h *CanvasRelay) Close(conn domain.Connection) {
	h.registry.Leave(conn.Room(), conn)
	h.announce(conn.Room(), conn, domain.PresenceLeave)
}

func (h *CanvasRelay) announce(room string, conn domain.Connection, action string) {
	data, err := presence(action, conn.ID())
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return
	}
	h.registry.Broadcast(room, data)
}

func (h *CanvasRelay) Handle(_ context.Context, conn domain.Connection, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch m := msg.(type) {
	case domain.BroadcastRequest:
		out, err := json.Marshal(domain.BroadcastMessage{Type: domain.TypeBroadcast, From: conn.ID(), Payload: m.Payload})
		if err != nil {
			slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
			return
		}
		h.registry.Broadcast(conn.Room(), out)
	case domain.SignalRequest:
		out, err := json.Marshal(domain.SignalMessage{Type: domain.TypeSignal, From: conn.ID(), Payload: m.Payload})
		if err != nil {
			slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
			return
		}
		if !h.registry.SendTo(m.To, out) {
			slog.Debug("signal target not found", "clientId", conn.ID(), "target", m.To)
		}
	case domain.UnknownRequest:
		slog.Debug("unknown message type dropped", "clientId", conn.ID(), "type", m.Type)
	}
}
