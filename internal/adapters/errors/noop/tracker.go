package noop

import (
	"context"
	"sync/atomic"

	"stockresearch/pkg/errors"
)

// Tracker discards every event. It keeps a count of captured errors so a
// local run can still report how many would have been sent.
type Tracker struct {
	captured atomic.Int64
}

func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	if err != nil {
		t.captured.Add(1)
	}
	return nil
}

func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	return nil
}

func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
}

func (t *Tracker) Flush(ctx context.Context) error {
	return nil
}

// Captured returns the number of errors passed to CaptureError
func (t *Tracker) Captured() int64 {
	return t.captured.Load()
}

var _ errors.Tracker = (*Tracker)(nil)
