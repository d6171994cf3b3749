package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"routegeo/internal/model"
)

// Redis stores decoded routes as JSON arrays with a TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to the server at url (redis://...).
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Backend() string { return "redis" }

func (r *Redis) Get(ctx context.Context, key string) ([]model.GeoPoint, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var points []model.GeoPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, false, fmt.Errorf("cached value %s: %w", key, err)
	}
	if points == nil {
		points = []model.GeoPoint{}
	}
	return points, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, points []model.GeoPoint) error {
	if points == nil {
		points = []model.GeoPoint{}
	}
	data, err := json.Marshal(points)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, data, r.ttl).Err()
}

func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.rdb.Close() }
