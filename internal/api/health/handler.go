package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"stockresearch/pkg/logger"
)

// Status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Check probes one dependency; a nil error means healthy
type Check func(ctx context.Context) error

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	checks      map[string]Check
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(log *logger.Logger, serviceName, version string, checks map[string]Check) *Handler {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Handler{
		log:         log,
		checks:      checks,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness returns 503 unless every check passes
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, healthy := h.run(ctx)

	statusCode := http.StatusOK
	if healthy < len(h.checks) {
		status.Status = StatusUnhealthy
		statusCode = http.StatusServiceUnavailable
		h.log.Warnf("Readiness check failed: %d/%d healthy", healthy, len(h.checks))
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns detailed health status. Partial failures report
// "degraded" with 200; only a total failure returns 503.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, healthy := h.run(ctx)

	statusCode := http.StatusOK
	switch {
	case len(h.checks) > 0 && healthy == 0:
		status.Status = StatusUnhealthy
		statusCode = http.StatusServiceUnavailable
	case healthy < len(h.checks):
		status.Status = StatusDegraded
	}

	writeJSON(w, statusCode, status)
}

func (h *Handler) run(ctx context.Context) (HealthStatus, int) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]ComponentHealth, len(names))
	healthy := 0
	for _, name := range names {
		start := time.Now()
		err := h.checks[name](ctx)
		elapsed := time.Since(start)

		if err != nil {
			h.log.Warnf("%s health check failed after %s: %v", name, elapsed, err)
			results[name] = ComponentHealth{Status: StatusUnhealthy, ResponseTime: elapsed.String(), Error: err.Error()}
			continue
		}
		results[name] = ComponentHealth{Status: StatusHealthy, ResponseTime: elapsed.String()}
		healthy++
	}

	return HealthStatus{
		Status:    StatusHealthy,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    results,
	}, healthy
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
