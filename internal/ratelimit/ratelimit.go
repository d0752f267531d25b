package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter applies a fixed-window cap per key, backed by Redis so the cap
// holds across server restarts. A nil Limiter allows everything.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// New connects to Redis and returns a limiter allowing limit events per
// window for each key.
func New(addr, password string, db, limit int, window time.Duration) (*Limiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Limiter{rdb: rdb, limit: limit, window: window}, nil
}

// Allow reports whether the event identified by key fits in the current
// window. Redis errors count as allowed so a limiter outage never blocks
// traffic.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return true
	}

	redisKey := "ratelimit:" + key
	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		l.rdb.Expire(ctx, redisKey, l.window)
	}
	return count <= int64(l.limit)
}

// Close releases the Redis connection.
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.rdb.Close()
}
