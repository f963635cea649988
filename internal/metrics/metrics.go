// Package metrics exposes session, routing and model usage metrics in the
// Prometheus format.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

const namespace = "market_brain"

// Metrics holds the collectors of one process. It implements query.Tracer
// and workflow.Notifier so it can be plugged into the router and sessions.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive prometheus.Gauge
	Events         *prometheus.CounterVec
	Routes         *prometheus.CounterVec
	Fallbacks      prometheus.Counter
	Truncations    prometheus.Counter
	Failures       prometheus.Counter
	ChatDuration   prometheus.Histogram
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of open sessions",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_events_total",
			Help:      "Workflow events by type",
		}, []string{"type"}),
		Routes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_routes_total",
			Help:      "Routed chat questions by route and category",
		}, []string{"route", "category"}),
		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_fallbacks_total",
			Help:      "Graph questions answered from report text instead",
		}),
		Truncations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_context_truncations_total",
			Help:      "Context path prompts cut to the token budget",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_answer_failures_total",
			Help:      "Failed answer generations",
		}),
		ChatDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_duration_seconds",
			Help:      "Time to answer a chat question",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// Registry is the gatherer served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WatchModel exports the accumulated usage of an AI client.
func (m *Metrics) WatchModel(client ai.GraphAIClient) {
	factory := promauto.With(m.registry)
	gauge := func(name, help string, value func(ai.ModelMetrics) float64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return value(client.GetMetrics())
		})
	}
	gauge("requests", "Model requests since start", func(mm ai.ModelMetrics) float64 { return float64(mm.Requests) })
	gauge("input_tokens", "Prompt tokens since start", func(mm ai.ModelMetrics) float64 { return float64(mm.InputTokens) })
	gauge("output_tokens", "Completion tokens since start", func(mm ai.ModelMetrics) float64 { return float64(mm.OutputTokens) })
	gauge("duration_seconds", "Time spent waiting for the model", func(mm ai.ModelMetrics) float64 {
		return float64(mm.DurationMs) / 1000
	})
}

// Record implements query.Tracer.
func (m *Metrics) Record(event query.TraceEvent) {
	switch event.Kind {
	case query.TraceEventRouteDecided:
		category := string(event.Category)
		if category == "" {
			category = "none"
		}
		m.Routes.WithLabelValues(string(event.Route), category).Inc()
	case query.TraceEventFallback:
		m.Fallbacks.Inc()
	case query.TraceEventContextTruncated:
		m.Truncations.Inc()
	case query.TraceEventCollaboratorFailed:
		m.Failures.Inc()
		m.ChatDuration.Observe(float64(event.DurationMs) / 1000)
	case query.TraceEventAnswerGenerated:
		m.ChatDuration.Observe(float64(event.DurationMs) / 1000)
	}
}

// Notify implements workflow.Notifier.
func (m *Metrics) Notify(_ context.Context, event workflow.Event) error {
	m.Events.WithLabelValues(string(event.Type)).Inc()
	return nil
}
