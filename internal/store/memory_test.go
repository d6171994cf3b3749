package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoutePolyline(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.RoutePolyline(ctx, "t1", "r1")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.SaveRoutePolyline(ctx, "t1", "r1", "_p~iF~ps|U"))
	got, err := m.RoutePolyline(ctx, "t1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "_p~iF~ps|U", got)

	// tenants are isolated
	_, err = m.RoutePolyline(ctx, "t2", "r1")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.SaveRoutePolyline(ctx, "t1", "r1", ""))
	got, err = m.RoutePolyline(ctx, "t1", "r1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
