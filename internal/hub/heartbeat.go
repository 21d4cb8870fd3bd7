package hub

import (
	"context"
	"log"
	"time"
)

// Monitor periodically probes every registered connection and evicts the
// ones whose peer stopped answering. Eviction is silent: it only removes
// capacity from future fan-out.
//
// Each cycle flags a connection suspect and sends a ping. A pong flips it
// back to alive before the next cycle; a connection still suspect when the
// next cycle fires is closed and unregistered. This is the only mechanism
// that reclaims transports that died without a close frame.
type Monitor struct {
	hub      *Hub
	interval time.Duration
}

// NewMonitor creates a heartbeat monitor for the given hub.
func NewMonitor(h *Hub, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{hub: h, interval: interval}
}

// Start launches the probe loop. It stops when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cycle()
		case <-ctx.Done():
			log.Printf("Heartbeat monitor shutting down")
			return
		}
	}
}

// cycle probes a snapshot of the registry so registrations arriving while
// pings are in flight are untouched until the next cycle.
func (m *Monitor) cycle() {
	for _, c := range m.hub.Snapshot() {
		if !c.Alive() {
			log.Printf("Connection %s of user %s missed heartbeat, evicting", c.ID(), c.UserID())
			m.hub.Drop(c)
			continue
		}

		c.beginProbe()
		if err := c.Ping(); err != nil {
			log.Printf("Ping to connection %s of user %s failed: %v, evicting", c.ID(), c.UserID(), err)
			m.hub.Drop(c)
		}
	}
}
