package shared

import (
	"context"
	"time"

	"stockresearch/internal/metrics"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

func wrapWithTimeout[T any](timeout time.Duration, fn Handler[T]) Handler[T] {
	return func(ctx context.Context, args T) (map[string]any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := fn(ctx, args)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrapf(errors.ErrTimeout, "tool exceeded %s", timeout)
		}
		return result, err
	}
}

func wrapWithStats[T any](name string, fn Handler[T]) Handler[T] {
	log := logger.Get().With("component", "tools", "tool", name)

	return func(ctx context.Context, args T) (map[string]any, error) {
		start := time.Now()
		result, err := fn(ctx, args)
		latency := time.Since(start)

		status := Outcome(result, err)
		metrics.RecordToolExecution(name, status, latency)

		switch status {
		case metrics.StatusError:
			log.Warnw("Tool failed", "duration_ms", latency.Milliseconds(), "error", err)
		case metrics.StatusWarning:
			msg, _ := result["error"].(string)
			log.Debugw("Tool returned in-band error", "duration_ms", latency.Milliseconds(), "message", msg)
		default:
			log.Debugw("Tool completed", "duration_ms", latency.Milliseconds())
		}
		return result, err
	}
}

// Outcome classifies a tool result for metrics: Go errors are failures,
// results carrying an "error" key are warnings.
func Outcome(result map[string]any, err error) string {
	if err != nil {
		return metrics.StatusError
	}
	if _, ok := result["error"]; ok {
		return metrics.StatusWarning
	}
	return metrics.StatusOK
}
