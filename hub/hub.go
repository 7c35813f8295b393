package hub

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"diagramador-collab-server/domain"
)

// Hub owns room membership. A single mutex serializes every operation so a
// broadcast never observes a room half-mutated by a concurrent join or leave.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]map[string]domain.Connection
	conns    map[string]domain.Connection
	memberOf map[string]string
}

func New() *Hub {
	return &Hub{
		rooms:    make(map[string]map[string]domain.Connection),
		conns:    make(map[string]domain.Connection),
		memberOf: make(map[string]string),
	}
}

// Join moves a connection that already belongs to another room out of it and
// returns that room, so the caller can announce the departure.
func (h *Hub) Join(roomID string, conn domain.Connection) (previous string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.memberOf[conn.ID()]; ok && current != roomID {
		h.removeLocked(current, conn.ID())
		previous = current
	}

	r, exists := h.rooms[roomID]
	if !exists {
		r = make(map[string]domain.Connection)
		h.rooms[roomID] = r
		slog.Debug("room created", "room", roomID)
	}
	r[conn.ID()] = conn
	h.conns[conn.ID()] = conn
	h.memberOf[conn.ID()] = roomID

	slog.Info("client joined", "room", roomID, "clientId", conn.ID(), "clients", len(r))
	return previous
}

func (h *Hub) Leave(roomID string, conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.memberOf[conn.ID()] != roomID {
		return
	}
	h.removeLocked(roomID, conn.ID())
}

func (h *Hub) removeLocked(roomID, connID string) {
	delete(h.conns, connID)
	delete(h.memberOf, connID)

	r, exists := h.rooms[roomID]
	if !exists {
		return
	}
	delete(r, connID)
	slog.Info("client left", "room", roomID, "clientId", connID, "clients", len(r))

	if len(r) == 0 {
		delete(h.rooms, roomID)
		slog.Info("room removed", "room", roomID)
	}
}

func (h *Hub) Members(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, exists := h.rooms[roomID]
	if !exists {
		return []string{}
	}
	return lo.Keys(r)
}

// Members whose send queue is full are closed once the lock is released.
func (h *Hub) Broadcast(roomID string, data []byte) int {
	h.mu.Lock()
	r := h.rooms[roomID]
	delivered := 0
	var failed []domain.Connection
	for _, conn := range r {
		if err := conn.Send(data); err != nil {
			failed = append(failed, conn)
			continue
		}
		delivered++
	}
	h.mu.Unlock()

	h.dropSlow(failed)
	return delivered
}

func (h *Hub) SendTo(connID string, data []byte) bool {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return false
	}
	err := conn.Send(data)
	h.mu.Unlock()

	if err != nil {
		h.dropSlow([]domain.Connection{conn})
		return false
	}
	return true
}

func (h *Hub) dropSlow(conns []domain.Connection) {
	for _, conn := range conns {
		slog.Warn("dropping unresponsive client", "clientId", conn.ID(), "room", conn.Room())
		if err := conn.Close(); err != nil {
			slog.Debug("close error", "clientId", conn.ID(), "error", err)
		}
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.rooms), len(h.conns)
}
