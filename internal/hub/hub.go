// Package hub holds the live mapping from user identity to open websocket
// connections and the heartbeat monitor that reclaims dead ones. It is the
// only shared mutable state in the service; every operation is safe under
// concurrent use from request handlers, the heartbeat timer and dispatchers.
package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Hub is the process-local connection registry, indexed
// user id -> connection id -> connection.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[uuid.UUID]*Conn
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uuid.UUID]map[uuid.UUID]*Conn),
	}
}

// Register adds a connection for a user and returns it. A new registration
// never closes or replaces the user's existing connections; each session is
// independent until explicitly closed or evicted.
func (h *Hub) Register(userID uuid.UUID, tr Transport) *Conn {
	c := newConn(userID, tr)

	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[userID]
	if !ok {
		conns = make(map[uuid.UUID]*Conn)
		h.users[userID] = conns
	}
	conns[c.id] = c
	return c
}

// Unregister removes a connection from the registry. Unregistering an
// unknown or already-removed connection is a no-op. The transport itself is
// closed by the caller (see Drop).
func (h *Hub) Unregister(userID, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(h.users, userID)
	}
}

// Drop unregisters a connection and closes its transport. Used when a write
// fails or the heartbeat monitor declares the peer dead.
func (h *Hub) Drop(c *Conn) {
	h.Unregister(c.userID, c.id)
	c.Close()
}

// ConnectionsFor returns a snapshot of a user's live connections. The
// returned slice is safe to iterate without holding any hub lock.
func (h *Hub) ConnectionsFor(userID uuid.UUID) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.users[userID]
	out := make([]*Conn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// Snapshot returns every registered connection.
func (h *Hub) Snapshot() []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Conn
	for _, conns := range h.users {
		for _, c := range conns {
			out = append(out, c)
		}
	}
	return out
}

// Users returns the ids of all users with at least one live connection.
func (h *Hub) Users() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(h.users))
	for id := range h.users {
		out = append(out, id)
	}
	return out
}

// Counts returns the number of live connections and connected users.
func (h *Hub) Counts() (conns, users int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cs := range h.users {
		conns += len(cs)
	}
	return conns, len(h.users)
}

// CloseAll drops every connection. Called on shutdown.
func (h *Hub) CloseAll() {
	for _, c := range h.Snapshot() {
		h.Drop(c)
	}
}
