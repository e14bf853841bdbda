package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Call outcomes used as the status label
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusWarning = "warning"
)

var (
	// MCP bridge metrics
	MCPCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockresearch_mcp_calls_total",
			Help: "Total number of remote calls sent to the Polygon MCP server",
		},
		[]string{"tool", "status"}, // status: ok|error|warning
	)

	MCPCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockresearch_mcp_call_duration_seconds",
			Help:    "Remote call round trip duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool"},
	)

	MCPSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockresearch_mcp_sessions_total",
			Help: "MCP session lifecycle events",
		},
		[]string{"event"}, // event: opened|open_failed|closed|close_failed
	)

	// Tool metrics
	ToolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockresearch_tool_calls_total",
			Help: "Total number of agent tool invocations",
		},
		[]string{"tool", "status"},
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockresearch_tool_latency_seconds",
			Help:    "Agent tool execution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool"},
	)

	// Agent metrics
	AgentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockresearch_agent_runs_total",
			Help: "Total number of pipeline executions",
		},
		[]string{"agent", "status"},
	)

	AgentRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockresearch_agent_run_duration_seconds",
			Help:    "Pipeline execution duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"agent"},
	)

	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockresearch_llm_tokens_total",
			Help: "Total LLM tokens consumed",
		},
		[]string{"agent", "direction"}, // direction: input|output
	)

	LLMRateLimitWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockresearch_llm_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the local LLM rate limiter",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"model"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			MCPCalls, MCPCallDuration, MCPSessions,
			ToolCalls, ToolLatency,
			AgentRuns, AgentRunDuration, LLMTokens, LLMRateLimitWait,
		)
	})
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordMCPCall records one dispatcher round trip
func RecordMCPCall(tool, status string, latency time.Duration) {
	MCPCalls.WithLabelValues(tool, status).Inc()
	MCPCallDuration.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordMCPSession records a session lifecycle event
func RecordMCPSession(event string) {
	MCPSessions.WithLabelValues(event).Inc()
}

// RecordToolExecution records one tool invocation made by an agent.
// In-band error results are reported with StatusWarning.
func RecordToolExecution(tool, status string, latency time.Duration) {
	ToolCalls.WithLabelValues(tool, status).Inc()
	ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordAgentRun records a completed pipeline execution
func RecordAgentRun(agent string, latency time.Duration, inputTokens, outputTokens int, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	AgentRuns.WithLabelValues(agent, status).Inc()
	AgentRunDuration.WithLabelValues(agent).Observe(latency.Seconds())
	LLMTokens.WithLabelValues(agent, "input").Add(float64(inputTokens))
	LLMTokens.WithLabelValues(agent, "output").Add(float64(outputTokens))
}

// RecordRateLimitWait records time spent blocked on the LLM limiter
func RecordRateLimitWait(model string, waited time.Duration) {
	LLMRateLimitWait.WithLabelValues(model).Observe(waited.Seconds())
}
