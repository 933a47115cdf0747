package workflow

import (
	"context"
	"time"

	"shelfmark/internal/queue"
)

// Health is a point-in-time snapshot of the daemon and its queue.
type Health struct {
	Running   bool
	LastError string
	LastScan  time.Time
	Queue     queue.HealthSummary
}

// Health reports the current daemon state together with queue counts.
func (m *Manager) Health(ctx context.Context) (Health, error) {
	summary, err := m.store.Health(ctx)
	if err != nil {
		return Health{}, err
	}
	h := Health{Queue: summary}
	m.mu.Lock()
	h.Running = m.running
	h.LastScan = m.lastScan
	if m.lastErr != nil {
		h.LastError = m.lastErr.Error()
	}
	m.mu.Unlock()
	return h, nil
}
