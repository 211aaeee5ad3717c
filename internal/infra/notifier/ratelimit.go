package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces FCM sends with a token bucket so a large subscriber
// list does not burst-flood the messaging API.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained
// sends with the given burst capacity.
//
//	limiter := NewRateLimiter(5.0, 10) // 5 sends/s, burst of 10
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
