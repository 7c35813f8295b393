package domain

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

const (
	TypeBroadcast = "broadcast"
	TypeSignal    = "signal"
	TypePresence  = "presence"

	PresenceJoin  = "join"
	PresenceLeave = "leave"
)

// Inbound is a decoded client envelope on the canvas channel.
type Inbound interface {
	inbound()
}

type BroadcastRequest struct {
	Payload json.RawMessage
}

type SignalRequest struct {
	To      string
	Payload json.RawMessage
}

// UnknownRequest carries a tag the relay does not route. It is dropped.
type UnknownRequest struct {
	Type string
}

func (BroadcastRequest) inbound() {}
func (SignalRequest) inbound()    {}
func (UnknownRequest) inbound()   {}

type BroadcastMessage struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type SignalMessage struct {
	Type    string          `json:"type"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type PresenceMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Peer   string `json:"peer"`
}

type Connection interface {
	ID() string
	Room() string
	Send(data []byte) error
	Close() error
}

// Registry keeps each connection in at most one room. Join returns the room
// the connection was moved out of, or "" when it had none.
type Registry interface {
	Join(roomID string, conn Connection) (previous string)
	Leave(roomID string, conn Connection)
	Members(roomID string) []string
	Broadcast(roomID string, data []byte) int
	SendTo(connID string, data []byte) bool
	Stats() (rooms, clients int)
}

// Session drives one connection from accept to close. Open runs before the
// first inbound message is read and Close runs once after the last.
type Session interface {
	Open(conn Connection)
	Handle(ctx context.Context, conn Connection, data []byte)
	Close(conn Connection)
}
