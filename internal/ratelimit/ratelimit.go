package ratelimit

import (
	"context"
	"errors"
	"time"

	"auth-gateway/internal/logger"

	"github.com/redis/go-redis/v9"
)

var ErrRateLimited = errors.New("ratelimit: too many requests")

// Limiter is a fixed-window counter in Redis. The window key expires on
// its own, so there is no sweep to run.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *Limiter) key(k string) string {
	return l.prefix + k
}

// Allow counts one hit against the key's current window. Returns
// ErrRateLimited once the window's budget is spent. Redis being
// unreachable fails open.
func (l *Limiter) Allow(ctx context.Context, k string) error {

	// NX: only the window's first hit arms the expiry. Re-arming on
	// every hit would keep a retrying client locked out forever.
	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, l.key(k))
	pipe.ExpireNX(ctx, l.key(k), l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("rate limiter unavailable, failing open", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	if count.Val() > l.limit {
		return ErrRateLimited
	}

	return nil
}
