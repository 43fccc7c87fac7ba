// file: service/rate_limiter.go

package service

import (
	"context"
	"time"

	"go-auth-api/logger"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for the Redis commands the rate limiter
// needs. This abstraction allows us to decouple the limiter from a concrete
// Redis implementation, enabling easier testing and future flexibility.
type ICacheClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window counter over Redis, keyed by caller identity.
// It guards the credential endpoints against brute forcing.
type RateLimiter struct {
	client ICacheClient
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a limiter allowing `limit` requests per `window`.
// A nil client disables limiting.
func NewRateLimiter(client ICacheClient, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the caller identified by key may proceed. The limiter
// is advisory: a Redis failure is logged and the request passes.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	counterKey := "ratelimit:" + key

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		logger.Log.WithError(err).Warn("Rate limiter unavailable, allowing request")
		return true
	}

	if count == 1 {
		l.client.Expire(ctx, counterKey, l.window)
	}

	return count <= l.limit
}
