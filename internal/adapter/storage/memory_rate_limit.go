package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimitStore keeps fixed-window counters in process. Expired
// windows are swept lazily on access.
type MemoryRateLimitStore struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	now       func() time.Time
	lastSweep time.Time
}

type rateWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

func (m *MemoryRateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= window {
		m.sweep(now)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

func (m *MemoryRateLimitStore) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
	m.lastSweep = now
}
