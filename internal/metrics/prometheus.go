package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine metrics
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_model_calls_total",
		Help: "Model calls made by the orchestration engine",
	}, []string{"phase", "status"}) // phase: "tool_round" or "final"

	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_tool_calls_total",
		Help: "Tool invocations dispatched by the orchestration engine",
	}, []string{"tool", "status"})

	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_runs_total",
		Help: "Completed orchestration runs by result",
	}, []string{"result"})

	ForcedFinal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_forced_final_total",
		Help: "Forced synthesis calls by reason",
	}, []string{"reason"}) // reason: "budget" or "model_error"

	RunRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_run_rounds",
		Help:    "Model calls per successful run",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8},
	})

	ToolLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_tool_latency_seconds",
		Help:    "Tool execution latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"tool"})

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rag_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_http_requests_total",
		Help: "HTTP requests served",
	}, []string{"route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route"})
)

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

func RecordModelCall(final, ok bool) {
	phase := "tool_round"
	if final {
		phase = "final"
	}
	ModelCalls.WithLabelValues(phase, status(ok)).Inc()
}

func RecordToolCall(tool string, ok bool, d time.Duration) {
	ToolCalls.WithLabelValues(tool, status(ok)).Inc()
	ToolLatency.WithLabelValues(tool).Observe(d.Seconds())
}

func RecordForcedFinal(reason string) {
	ForcedFinal.WithLabelValues(reason).Inc()
}

// RecordRun counts a finished run; rounds is observed only on success.
func RecordRun(ok bool, rounds int) {
	Runs.WithLabelValues(status(ok)).Inc()
	if ok {
		RunRounds.Observe(float64(rounds))
	}
}

func SetCircuitBreakerState(service string, state int) {
	CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

func RecordHTTPRequest(route string, code int, d time.Duration) {
	HTTPRequests.WithLabelValues(route, statusClass(code)).Inc()
	HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
