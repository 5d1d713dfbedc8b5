package votes

import (
	"context"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

const rateLimitKeyPrefix = "ratelimit:vote:"

// Allowance is the result of one rate-limit check.
type Allowance struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

/// RateLimiter is a fixed-window per-IP counter. A store failure fails open:
// the limiter must never become the reason votes stop being accepted.
type RateLimiter struct {
	store  repository.Store
	log    logger.Logger
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing `limit` votes per `window` per key.
func NewRateLimiter(store repository.Store, log logger.Logger, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, log: log, limit: limit, window: window}
}

// Check counts one request against the key's window and reports whether it is
// allowed, alongside the headers' worth of limit metadata.
func (r *RateLimiter) Check(ctx context.Context, key string) Allowance {
	storeKey := rateLimitKeyPrefix + key

	n, err := r.store.Incr(ctx, storeKey)
	if err != nil {
		r.log.Warn(ctx, "rate limiter unavailable, failing open", logger.Error(err))
		return Allowance{Allowed: true, Limit: r.limit, Remaining: r.limit, ResetAfter: r.window}
	}
	if n == 1 {
		if _, err := r.store.Expire(ctx, storeKey, r.window); err != nil {
			r.log.Warn(ctx, "rate limiter expire failed", logger.Error(err))
		}
	}

	reset := r.window
	if ttl, found, err := r.store.TTL(ctx, storeKey); err == nil && found && ttl > 0 {
		reset = ttl
	}

	remaining := r.limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	if int(n) > r.limit {
		metrics.RecordRateLimited()
		return Allowance{Allowed: false, Limit: r.limit, Remaining: 0, ResetAfter: reset}
	}
	return Allowance{Allowed: true, Limit: r.limit, Remaining: remaining, ResetAfter: reset}
}
