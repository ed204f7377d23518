// Package metrics records tool-call counters and latencies with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeOK labels a successful call; failures use domain.ErrorKind.
const OutcomeOK = "ok"

// ToolMetrics is safe to use as a nil pointer, in which case it records nothing.
type ToolMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewToolMetrics(registry *prometheus.Registry) *ToolMetrics {
	if registry == nil {
		return nil
	}

	m := &ToolMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oura_mcp_tool_calls_total",
				Help: "Total number of tool calls by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oura_mcp_tool_call_duration_seconds",
				Help:    "Tool call latency including the upstream request",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(m.calls, m.duration)
	return m
}

func (m *ToolMetrics) ObserveCall(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
