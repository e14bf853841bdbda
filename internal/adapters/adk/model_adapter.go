package adk

import (
	"context"
	"iter"
	"time"

	"google.golang.org/adk/model"

	"stockresearch/internal/adapters/ai"
	"stockresearch/internal/metrics"
	"stockresearch/pkg/logger"
)

// RateLimitedModel decorates an ADK model so every request first takes a
// token from the shared limiter.
type RateLimitedModel struct {
	inner   model.LLM
	limiter ai.RateLimiter
	log     *logger.Logger
}

// NewRateLimitedModel wraps inner. A nil limiter disables limiting.
func NewRateLimitedModel(inner model.LLM, limiter ai.RateLimiter) *RateLimitedModel {
	if limiter == nil {
		limiter = ai.NewNoOpLimiter()
	}
	return &RateLimitedModel{
		inner:   inner,
		limiter: limiter,
		log:     logger.Get().With("component", "model_adapter", "model", inner.Name()),
	}
}

// Name returns the wrapped model name.
func (m *RateLimitedModel) Name() string {
	return m.inner.Name()
}

// GenerateContent implements the ADK model.LLM interface.
func (m *RateLimitedModel) GenerateContent(
	ctx context.Context,
	req *model.LLMRequest,
	stream bool,
) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		start := time.Now()
		if err := m.limiter.Wait(ctx); err != nil {
			m.log.Warnw("LLM request rejected by rate limiter", "error", err)
			yield(nil, err)
			return
		}
		waited := time.Since(start)
		metrics.RecordRateLimitWait(m.Name(), waited)
		if waited > time.Second {
			m.log.Debugw("LLM request delayed by rate limiter", "waited_ms", waited.Milliseconds())
		}

		for resp, err := range m.inner.GenerateContent(ctx, req, stream) {
			if !yield(resp, err) {
				return
			}
		}
	}
}

var _ model.LLM = (*RateLimitedModel)(nil)
