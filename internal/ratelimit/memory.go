package ratelimit

import (
	"context"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Limiter answers whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// MemoryLimiter wraps an in-process sliding window limiter. The rate is
// fixed at construction, e.g. "120-M" for 120 requests per minute.
type MemoryLimiter struct {
	inner *limiter.Limiter
}

// NewMemoryLimiter builds a limiter from a formatted rate string.
func NewMemoryLimiter(formatted string) (*MemoryLimiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return &MemoryLimiter{inner: limiter.New(memory.NewStore(), rate)}, nil
}

// Allow consumes one unit for key and reports whether the request fits the window.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	lctx, err := m.inner.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Allowed:   !lctx.Reached,
		Limit:     lctx.Limit,
		Remaining: lctx.Remaining,
		ResetAt:   time.Unix(lctx.Reset, 0),
	}, nil
}
