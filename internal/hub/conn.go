package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds every write to a connection so a stalled peer cannot
// block fan-out to other connections.
const writeWait = 10 * time.Second

// Transport is the subset of *websocket.Conn the hub needs. Tests substitute
// an in-memory implementation.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is one live websocket connection owned by the hub. A user may hold
// several at once (multi-device); each lives and dies independently.
type Conn struct {
	id       uuid.UUID
	userID   uuid.UUID
	tr       Transport
	openedAt time.Time

	alive atomic.Bool

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newConn(userID uuid.UUID, tr Transport) *Conn {
	c := &Conn{
		id:       uuid.New(),
		userID:   userID,
		tr:       tr,
		openedAt: time.Now(),
	}
	c.alive.Store(true)
	return c
}

// ID returns the hub-assigned connection id.
func (c *Conn) ID() uuid.UUID { return c.id }

// UserID returns the identity that owns this connection.
func (c *Conn) UserID() uuid.UUID { return c.userID }

// OpenedAt returns when the connection was registered.
func (c *Conn) OpenedAt() time.Time { return c.openedAt }

// MarkAlive records that the peer answered a liveness probe. Wired to the
// transport's pong handler.
func (c *Conn) MarkAlive() { c.alive.Store(true) }

// Alive reports whether the peer answered since the last probe.
func (c *Conn) Alive() bool { return c.alive.Load() }

// beginProbe flags the connection suspect until the next pong arrives.
func (c *Conn) beginProbe() { c.alive.Store(false) }

// WriteJSON sends one JSON text frame. Writes are serialized per connection;
// the websocket transport permits only one concurrent writer.
func (c *Conn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.tr.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.tr.WriteMessage(websocket.TextMessage, data)
}

// Ping sends a liveness probe control frame.
func (c *Conn) Ping() error {
	return c.tr.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close shuts the transport down. Safe to call more than once; only the
// first call has effect.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(writeWait)
		_ = c.tr.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.tr.Close()
	})
}
