package store

import (
	"context"
	"errors"
)

// RouteStore persists each route's encoded overview polyline, scoped by
// tenant.
type RouteStore interface {
	RoutePolyline(ctx context.Context, tenantID, routeID string) (string, error)
	SaveRoutePolyline(ctx context.Context, tenantID, routeID, encoded string) error
}

var ErrNotFound = errors.New("not found")
