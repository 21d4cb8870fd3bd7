package hub

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHeartbeatEvictsUnresponsiveConnection(t *testing.T) {
	h := NewHub()
	userID := uuid.New()
	tr := &fakeTransport{} // never answers pings
	h.Register(userID, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(h, 10*time.Millisecond)
	m.Start(ctx)

	// First cycle probes, second cycle finds the connection still suspect.
	assert.Eventually(t, func() bool {
		return len(h.ConnectionsFor(userID)) == 0
	}, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, tr.pingCount(), 1)
	assert.Equal(t, 1, tr.closeCount())
}

func TestHeartbeatKeepsResponsiveConnection(t *testing.T) {
	h := NewHub()
	userID := uuid.New()
	tr := &fakeTransport{}
	c := h.Register(userID, tr)
	// Answer every probe immediately, as a pong handler would.
	tr.onPing = c.MarkAlive

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(h, 10*time.Millisecond)
	m.Start(ctx)

	assert.Eventually(t, func() bool {
		return tr.pingCount() >= 5
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, h.ConnectionsFor(userID), 1)
	assert.Equal(t, 0, tr.closeCount())
}

func TestHeartbeatEvictsOnPingWriteError(t *testing.T) {
	h := NewHub()
	userID := uuid.New()
	tr := &fakeTransport{failWrites: true}
	h.Register(userID, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(h, 10*time.Millisecond)
	m.Start(ctx)

	assert.Eventually(t, func() bool {
		return len(h.ConnectionsFor(userID)) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMonitorDefaultsInterval(t *testing.T) {
	m := NewMonitor(NewHub(), 0)
	assert.Equal(t, 30*time.Second, m.interval)
}
