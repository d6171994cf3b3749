//go:build redis_integration

package cache

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; skipping integration test")
	}
	r, err := NewRedis(url, time.Minute)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.Ping(t.Context()))

	key := "polyline:test:" + uuid.NewString()
	_, ok, err := r.Get(t.Context(), key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(t.Context(), key, sample))
	got, ok, err := r.Get(t.Context(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got)
}

func TestRedisWrappedClientExpires(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; skipping integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()
	r := NewRedisClient(rdb, time.Second)

	key := "polyline:test:" + uuid.NewString()
	require.NoError(t, r.Set(t.Context(), key, nil))
	got, ok, err := r.Get(t.Context(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	ttl, err := rdb.TTL(t.Context(), key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)
}
