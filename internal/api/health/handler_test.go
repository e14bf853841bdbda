package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

func ok(context.Context) error      { return nil }
func failing(context.Context) error { return errors.Wrap(errors.ErrConfig, "uvx launcher not found") }

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandleHealth(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		h := New(logger.Get(), "stockresearch", "dev", map[string]Check{"launcher": ok, "llm": ok})
		code, status := serve(t, h.HandleHealth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, "stockresearch", status.Service)
		assert.Len(t, status.Checks, 2)
	})

	t.Run("partial failure is degraded", func(t *testing.T) {
		h := New(logger.Get(), "stockresearch", "dev", map[string]Check{"launcher": failing, "llm": ok})
		code, status := serve(t, h.HandleHealth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusDegraded, status.Status)
		assert.Equal(t, StatusUnhealthy, status.Checks["launcher"].Status)
		assert.Contains(t, status.Checks["launcher"].Error, "uvx launcher not found")
	})

	t.Run("total failure", func(t *testing.T) {
		h := New(logger.Get(), "stockresearch", "dev", map[string]Check{"launcher": failing})
		code, status := serve(t, h.HandleHealth)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, StatusUnhealthy, status.Status)
	})

	t.Run("no checks", func(t *testing.T) {
		code, status := serve(t, New(logger.Get(), "stockresearch", "dev", nil).HandleHealth)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusHealthy, status.Status)
	})
}

func TestHandleReadiness(t *testing.T) {
	h := New(logger.Get(), "stockresearch", "dev", map[string]Check{"launcher": failing, "llm": ok})
	code, status := serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, status.Status)

	h = New(logger.Get(), "stockresearch", "dev", map[string]Check{"llm": ok})
	code, _ = serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusOK, code)
}

func TestHandleLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	New(logger.Get(), "stockresearch", "dev", nil).HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
