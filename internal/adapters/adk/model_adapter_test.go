package adk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"

	"stockresearch/internal/adapters/adk/adktest"
	"stockresearch/internal/adapters/ai"
	"stockresearch/pkg/errors"
)

func TestRateLimitedModel_PassesThrough(t *testing.T) {
	inner := adktest.NewModel("gemini-2.5-flash", "hello")
	m := NewRateLimitedModel(inner, ai.NewNoOpLimiter())

	assert.Equal(t, "gemini-2.5-flash", m.Name())

	var texts []string
	for resp, err := range m.GenerateContent(context.Background(), &model.LLMRequest{}, false) {
		require.NoError(t, err)
		texts = append(texts, resp.Content.Parts[0].Text)
	}
	assert.Equal(t, []string{"hello"}, texts)
	assert.Len(t, inner.Requests(), 1)
}

func TestRateLimitedModel_LimiterRejects(t *testing.T) {
	inner := adktest.NewModel("gemini-2.5-flash", "hello")
	limiter := ai.NewTokenBucketLimiter("gemini", 1, 1)
	require.True(t, limiter.Allow())

	m := NewRateLimitedModel(inner, limiter)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range m.GenerateContent(ctx, &model.LLMRequest{}, false) {
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)
	}
	assert.Empty(t, inner.Requests(), "inner model is not called when the limiter fails")
}

func TestModelProvider(t *testing.T) {
	created := 0
	provider := NewModelProvider(func(_ context.Context, name string) (model.LLM, error) {
		created++
		if name == "broken" {
			return nil, errors.New("no such model")
		}
		return adktest.NewModel(name, "ok"), nil
	}, ai.NewNoOpLimiter())

	first, err := provider.Model(context.Background(), "gemini-2.5-pro")
	require.NoError(t, err)
	second, err := provider.Model(context.Background(), "gemini-2.5-pro")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, created)

	_, err = provider.Model(context.Background(), "broken")
	assert.ErrorContains(t, err, "create model broken")

	_, err = provider.Model(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
