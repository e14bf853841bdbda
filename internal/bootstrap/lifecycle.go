package bootstrap

import (
	"context"
	"sync"
	"time"

	"stockresearch/internal/api"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 15 * time.Second,
	}
}

// Shutdown performs coordinated cleanup in order:
// 1. No new HTTP requests accepted
// 2. Background goroutines finish
// 3. Errors and logs flushed
//
// MCP sessions are scoped to single operations and need no cleanup here.
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	httpServer *api.Server,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	// ========================================
	// Step 1: Stop HTTP Server (5s timeout)
	// ========================================
	if httpServer != nil {
		log.Info("[1/4] Stopping HTTP server...")
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := httpServer.Shutdown(httpCtx); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
		} else {
			log.Info("✓ HTTP server stopped")
		}
		httpCancel()
	}

	// ========================================
	// Step 2: Wait for goroutines
	// ========================================
	log.Debug("[2/4] Waiting for goroutines...")
	l.waitForGoroutines(wg, 5*time.Second, log)

	// ========================================
	// Step 3: Flush Error Tracker
	// ========================================
	log.Debug("[3/4] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	// ========================================
	// Step 4: Sync Logs
	// ========================================
	log.Debug("[4/4] Syncing logs...")
	_ = logger.Sync()
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	if wg == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnf("⚠ Some goroutines did not finish within %s", timeout)
	}
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Warnf("Error tracker flush failed: %v", err)
	}
}
