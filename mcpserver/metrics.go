package mcpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"

	"github.com/Fitzpa/vitest-mcp/security"
)

// Tool call outcomes used as the "outcome" label.
const (
	outcomeOK          = "ok"
	outcomeRejected    = "rejected"
	outcomeError       = "error"
	outcomeRateLimited = "rate_limited"
)

var (
	toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitest_mcp_tool_duration_seconds",
			Help:    "Duration of MCP tool calls in seconds",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"tool"},
	)

	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitest_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls by outcome",
		},
		[]string{"tool", "outcome"},
	)

	validationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitest_mcp_validation_rejections_total",
			Help: "Inputs rejected by the validation gate, by violated rule",
		},
		[]string{"tool", "kind"},
	)

	runnerBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitest_mcp_runner_breaker_state",
			Help: "Vitest runner circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// recordToolCall records the outcome and duration of one tool call.
func recordToolCall(tool, outcome string, elapsed time.Duration) {
	toolCallDuration.With(prometheus.Labels{"tool": tool}).Observe(elapsed.Seconds())
	toolCallsTotal.With(prometheus.Labels{"tool": tool, "outcome": outcome}).Inc()
}

// recordRejection counts a validation failure under its rule name.
func recordRejection(tool string, kind security.Kind) {
	validationRejections.With(prometheus.Labels{"tool": tool, "kind": kind.String()}).Inc()
}

// recordBreakerState records the runner circuit breaker state.
func recordBreakerState(state gobreaker.State) {
	var value float64
	switch state {
	case gobreaker.StateClosed:
		value = 0
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	runnerBreakerState.Set(value)
}

// NewMetricsServer creates an HTTP server exposing /metrics and /health on
// the loopback interface.
func NewMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
