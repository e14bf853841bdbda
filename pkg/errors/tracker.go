package errors

import (
	"context"
)

// Tracker reports errors to an external service (Sentry) or discards them.
type Tracker interface {
	// CaptureError sends an error with optional tags
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage sends a plain message
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// AddBreadcrumb records a step (tool call, agent start) leading up to a later error
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	// Flush waits for pending events to be delivered
	Flush(ctx context.Context) error
}

// Level is the severity of a captured message
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

func (l Level) String() string {
	return string(l)
}
