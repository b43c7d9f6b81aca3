package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter stored in Redis, shared by every
// server instance that points at the same Redis.
type Limiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

// Result describes one counted request
type Result struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

func New(client redis.Cmdable, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Allow counts a request for key and reports whether it fits in the current window
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := "ratelimit:" + l.prefix + ":" + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		ttl = p.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := incr.Val()
	retryAfter := ttl.Val()

	// first hit of a window, or a key left without expiry
	if count == 1 || retryAfter < 0 {
		if err := l.client.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expiry: %w", err)
		}
		retryAfter = l.window
	}

	return Result{
		Allowed:    count <= l.limit,
		Count:      count,
		Limit:      l.limit,
		RetryAfter: retryAfter,
	}, nil
}
