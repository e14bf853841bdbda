package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"stockresearch/pkg/errors"
)

// RateLimiter defines the interface for rate limiting LLM requests.
type RateLimiter interface {
	// Wait blocks until request can proceed or context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if request can proceed without blocking.
	Allow() bool

	// Limit returns current rate limit (requests per minute).
	Limit() float64
}

// TokenBucketLimiter is a token bucket shared by every model of one backend.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
	name    string
}

// NewTokenBucketLimiter creates a limiter allowing reqPerMinute requests.
// burst defaults to 10% of the per-minute rate, at least 1.
func NewTokenBucketLimiter(name string, reqPerMinute float64, burst int) *TokenBucketLimiter {
	if burst <= 0 {
		burst = int(reqPerMinute / 10)
		if burst < 1 {
			burst = 1
		}
	}

	return &TokenBucketLimiter{
		limiter: rate.NewLimiter(rate.Limit(reqPerMinute/60.0), burst),
		name:    name,
	}
}

// Wait blocks until a token is available or ctx is done
func (l *TokenBucketLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return &RateLimitError{Name: l.name, Limit: l.Limit(), Err: err}
	}
	return nil
}

// Allow consumes a token if one is available
func (l *TokenBucketLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the rate in requests per minute
func (l *TokenBucketLimiter) Limit() float64 {
	return float64(l.limiter.Limit()) * 60.0
}

// NoOpLimiter never blocks. Used when rate limiting is disabled and in tests.
type NoOpLimiter struct{}

// NewNoOpLimiter creates a no-op rate limiter.
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

func (l *NoOpLimiter) Wait(ctx context.Context) error { return ctx.Err() }

func (l *NoOpLimiter) Allow() bool { return true }

// Limit returns -1 to indicate unlimited.
func (l *NoOpLimiter) Limit() float64 { return -1 }

// NewRateLimiter returns a token bucket for positive rates and a no-op limiter otherwise.
func NewRateLimiter(name string, reqPerMinute float64, burst int) RateLimiter {
	if reqPerMinute <= 0 {
		return NewNoOpLimiter()
	}
	return NewTokenBucketLimiter(name, reqPerMinute, burst)
}

// RateLimitError wraps a failed wait with limiter context.
type RateLimitError struct {
	Name  string
	Limit float64
	Err   error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit wait for %s (limit: %.0f req/min): %v", e.Name, e.Limit, e.Err)
}

// Unwrap exposes both the rate limit kind and the underlying cause.
func (e *RateLimitError) Unwrap() []error {
	return []error{errors.ErrRateLimitExceeded, e.Err}
}

