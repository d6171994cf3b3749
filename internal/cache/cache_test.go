package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routegeo/internal/model"
)

var sample = []model.GeoPoint{{Lat: 38.5, Lng: -120.2}, {Lat: 40.7, Lng: -120.95}}

func TestKey(t *testing.T) {
	k := Key("_p~iF~ps|U", model.DecodeOptions{})
	assert.True(t, strings.HasPrefix(k, "polyline:"))
	assert.Len(t, k, len("polyline:")+32)
	assert.Equal(t, k, Key("_p~iF~ps|U", model.DecodeOptions{}))

	assert.NotEqual(t, k, Key("_p~iF~ps|V", model.DecodeOptions{}))
	assert.NotEqual(t, k, Key("_p~iF~ps|U", model.DecodeOptions{Simplify: model.Bool(false)}))
	assert.NotEqual(t, k, Key("_p~iF~ps|U", model.DecodeOptions{Tolerance: 0.01}))
	// tolerance is irrelevant when simplification is off
	assert.Equal(t,
		Key("abc", model.DecodeOptions{Simplify: model.Bool(false)}),
		Key("abc", model.DecodeOptions{Simplify: model.Bool(false), Tolerance: 0.5}))
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 0)

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "a", sample))
	got, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got)

	// callers cannot mutate the stored slice
	got[0].Lat = 0
	again, _, _ := m.Get(ctx, "a")
	assert.InDelta(t, 38.5, again[0].Lat, 0)
}

func TestMemoryEmptyValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, 0)
	require.NoError(t, m.Set(ctx, "empty", nil))
	got, ok, err := m.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestMemoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 0)
	require.NoError(t, m.Set(ctx, "a", sample))
	require.NoError(t, m.Set(ctx, "b", sample))
	require.NoError(t, m.Set(ctx, "a", sample[:1]))
	require.NoError(t, m.Set(ctx, "c", sample))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok, "a was inserted first")
	_, ok, _ = m.Get(ctx, "b")
	assert.True(t, ok)
	_, ok, _ = m.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(4, time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", sample))
	_, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "a", sample))
	_, ok, _ = m.Get(ctx, "a")
	assert.True(t, ok)
}

func TestRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis("not a url", time.Minute)
	assert.Error(t, err)
}
