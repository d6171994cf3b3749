package store

import (
	"context"
	"sync"
)

type routeKey struct{ tenant, route string }

// Memory is an in-process RouteStore used when no database is configured.
type Memory struct {
	mu     sync.RWMutex
	routes map[routeKey]string
}

func NewMemory() *Memory {
	return &Memory{routes: map[routeKey]string{}}
}

func (m *Memory) RoutePolyline(_ context.Context, tenantID, routeID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	enc, ok := m.routes[routeKey{tenantID, routeID}]
	if !ok {
		return "", ErrNotFound
	}
	return enc, nil
}

func (m *Memory) SaveRoutePolyline(_ context.Context, tenantID, routeID, encoded string) error {
	m.mu.Lock()
	m.routes[routeKey{tenantID, routeID}] = encoded
	m.mu.Unlock()
	return nil
}
