package adk

import (
	"context"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"stockresearch/internal/adapters/ai"
	"stockresearch/pkg/errors"
)

// ModelConstructor creates the raw backend model for a name
type ModelConstructor func(ctx context.Context, name string) (model.LLM, error)

// GeminiConstructor builds Gemini API models with the given key
func GeminiConstructor(apiKey string) ModelConstructor {
	return func(ctx context.Context, name string) (model.LLM, error) {
		return gemini.NewModel(ctx, name, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	}
}

// ModelProvider hands out rate limited models, one instance per model name.
// All instances share one limiter since they share one API quota.
type ModelProvider struct {
	mu       sync.Mutex
	models   map[string]model.LLM
	newModel ModelConstructor
	limiter  ai.RateLimiter
}

// NewModelProvider creates a provider over newModel
func NewModelProvider(newModel ModelConstructor, limiter ai.RateLimiter) *ModelProvider {
	return &ModelProvider{
		models:   make(map[string]model.LLM),
		newModel: newModel,
		limiter:  limiter,
	}
}

// Model returns the cached model for name, creating it on first use
func (p *ModelProvider) Model(ctx context.Context, name string) (model.LLM, error) {
	if name == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "model name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.models[name]; ok {
		return m, nil
	}

	raw, err := p.newModel(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "create model %s", name)
	}
	m := NewRateLimitedModel(raw, p.limiter)
	p.models[name] = m
	return m, nil
}
