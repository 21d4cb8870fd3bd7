package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

// fakeTransport is an in-memory Transport for registry and heartbeat tests.
type fakeTransport struct {
	mu         sync.Mutex
	frames     [][]byte
	pings      int
	closes     int
	failWrites bool
	onPing     func()
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return assert.AnError
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeTransport) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.mu.Lock()
	if f.failWrites {
		f.mu.Unlock()
		return assert.AnError
	}
	var hook func()
	if messageType == websocket.PingMessage {
		f.pings++
		hook = f.onPing
	}
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (f *fakeTransport) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func TestRegisterKeepsExistingConnections(t *testing.T) {
	h := NewHub()
	userID := uuid.New()

	first := &fakeTransport{}
	second := &fakeTransport{}
	c1 := h.Register(userID, first)
	c2 := h.Register(userID, second)

	assert.NotEqual(t, c1.ID(), c2.ID())
	assert.Len(t, h.ConnectionsFor(userID), 2)
	// A reconnect must never implicitly close the prior session.
	assert.Equal(t, 0, first.closeCount())

	conns, users := h.Counts()
	assert.Equal(t, 2, conns)
	assert.Equal(t, 1, users)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := NewHub()
	userID := uuid.New()
	c := h.Register(userID, &fakeTransport{})

	h.Unregister(userID, c.ID())
	h.Unregister(userID, c.ID())
	h.Unregister(uuid.New(), uuid.New())

	assert.Empty(t, h.ConnectionsFor(userID))
	assert.Empty(t, h.Users())
}

func TestDropClosesTransportOnce(t *testing.T) {
	h := NewHub()
	userID := uuid.New()
	tr := &fakeTransport{}
	c := h.Register(userID, tr)

	h.Drop(c)
	h.Drop(c)

	assert.Equal(t, 1, tr.closeCount())
	assert.Empty(t, h.ConnectionsFor(userID))
}

func TestSnapshotCoversAllUsers(t *testing.T) {
	h := NewHub()
	a, b := uuid.New(), uuid.New()
	h.Register(a, &fakeTransport{})
	h.Register(a, &fakeTransport{})
	h.Register(b, &fakeTransport{})

	assert.Len(t, h.Snapshot(), 3)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, h.Users())
}

func TestConcurrentRegistryAccess(t *testing.T) {
	h := NewHub()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := h.Register(userID, &fakeTransport{})
			for _, conn := range h.ConnectionsFor(userID) {
				_ = conn.WriteJSON(map[string]string{"type": "test"})
			}
			h.Drop(c)
		}()
	}
	wg.Wait()

	assert.Empty(t, h.ConnectionsFor(userID))
}

func TestWriteJSONDeliversFrame(t *testing.T) {
	h := NewHub()
	tr := &fakeTransport{}
	c := h.Register(uuid.New(), tr)

	assert.NoError(t, c.WriteJSON(map[string]int{"count": 3}))

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Len(t, tr.frames, 1)
	assert.JSONEq(t, `{"count":3}`, string(tr.frames[0]))
}
