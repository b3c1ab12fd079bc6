package mealdb

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outgoing API calls with a token bucket.
// TheMealDB's free key has no published quota, so the limit is a courtesy.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows burst requests immediately, then refills at
// requestsPerSecond. A non-positive rate disables throttling.
//
// Example:
//
//	limiter := NewRateLimiter(5, 10) // 5 req/s with burst of 10
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(r, burst)}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
