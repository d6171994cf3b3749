package cache

import (
	"context"
	"sync"
	"time"

	"routegeo/internal/model"
)

type memoryEntry struct {
	points    []model.GeoPoint
	expiresAt time.Time
}

// Memory is a bounded in-process cache. When full, the oldest insertion is
// evicted.
type Memory struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	entries map[string]memoryEntry
	order   []string
	now     func() time.Time
}

// NewMemory holds at most size entries for ttl each. A zero ttl never expires.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 1
	}
	return &Memory{size: size, ttl: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Backend() string { return "memory" }

func (m *Memory) Get(_ context.Context, key string) ([]model.GeoPoint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return append([]model.GeoPoint{}, e.points...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, points []model.GeoPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{points: append([]model.GeoPoint{}, points...)}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = e
	for len(m.entries) > m.size && len(m.order) > 0 {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
