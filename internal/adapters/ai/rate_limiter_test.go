package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockresearch/pkg/errors"
)

func TestTokenBucketLimiter_Allow(t *testing.T) {
	// 60 req/min = 1 req/sec, burst 2
	limiter := NewTokenBucketLimiter("gemini", 60, 2)

	assert.True(t, limiter.Allow(), "first request uses the burst")
	assert.True(t, limiter.Allow(), "second request uses the burst")
	assert.False(t, limiter.Allow(), "bucket is empty")
	assert.InDelta(t, 60.0, limiter.Limit(), 0.001)
}

func TestTokenBucketLimiter_DefaultBurst(t *testing.T) {
	limiter := NewTokenBucketLimiter("gemini", 5, 0)
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow(), "burst is at least one")
}

func TestTokenBucketLimiter_ContextCancellation(t *testing.T) {
	// 6 req/min = one token every 10s
	limiter := NewTokenBucketLimiter("gemini", 6, 1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "gemini", rlErr.Name)
}

func TestNewRateLimiter(t *testing.T) {
	assert.IsType(t, &NoOpLimiter{}, NewRateLimiter("gemini", 0, 0))
	assert.IsType(t, &TokenBucketLimiter{}, NewRateLimiter("gemini", 30, 0))

	noop := NewNoOpLimiter()
	assert.True(t, noop.Allow())
	assert.Equal(t, -1.0, noop.Limit())
	assert.NoError(t, noop.Wait(context.Background()))
}
