package graph

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Graph allows roughly 10,000 requests per 10 minutes per app and tenant
	DefaultRequestsPerSecond = 10.0
	DefaultBurstSize         = 15
)

// RateLimiter paces Graph requests with a token bucket and holds all
// requests back after a 429 until the server's Retry-After has passed.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter. Non-positive values fall back to the defaults.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurstSize
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		now:     time.Now,
	}
}

// Wait blocks until a request may be issued or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := retryAt.Sub(r.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRetryAfter holds requests back for the given duration. A later
// deadline already in place is kept.
func (r *RateLimiter) RecordRetryAfter(d time.Duration) {
	if d <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	until := r.now().Add(d)
	if until.After(r.retryAt) {
		r.retryAt = until
	}
}
