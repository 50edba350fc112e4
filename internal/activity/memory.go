package activity

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker is an in-memory Tracker. It is the default when no Redis
// URL is configured, and loses all activity history on restart.
type MemoryTracker struct {
	mu   sync.RWMutex
	data map[string]time.Time
}

// NewMemoryTracker creates an empty MemoryTracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{data: make(map[string]time.Time)}
}

func (m *MemoryTracker) Touch(_ context.Context, key string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = t
	return nil
}

func (m *MemoryTracker) LastSeen(_ context.Context, key string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MemoryTracker) Close() error { return nil }
