package agent

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "sol"

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	TurnsTotal    *prometheus.CounterVec
	TurnsInFlight prometheus.Gauge
	TurnDuration  prometheus.Histogram

	CompletionsTotal  *prometheus.CounterVec
	CompletionLatency prometheus.Histogram
	TokensTotal       *prometheus.CounterVec

	ToolDispatchesTotal *prometheus.CounterVec
	ToolLoopAborts      prometheus.Counter
}

// NewMetrics registers the engine collectors on reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "turns_total",
				Help:      "Processed user messages by result",
			},
			[]string{"result"},
		),
		TurnsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "turns_in_flight",
				Help:      "User messages currently being processed",
			},
		),
		TurnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "turn_duration_seconds",
				Help:      "Time to process one user message end to end",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
		),
		CompletionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "completions_total",
				Help:      "Completion requests by result",
			},
			[]string{"result"},
		),
		CompletionLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "completion_latency_seconds",
				Help:      "Completion request latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
			},
		),
		TokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tokens_total",
				Help:      "Tokens reported by the completion endpoint",
			},
			[]string{"direction"},
		),
		ToolDispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tool_dispatches_total",
				Help:      "Tool calls by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolLoopAborts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tool_loop_aborts_total",
				Help:      "Turns aborted for exceeding the tool turn limit",
			},
		),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
