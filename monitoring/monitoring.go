// Package monitoring implements the engine's fire-and-forget observability
// hooks on Prometheus: tool executions by name and status, model call
// latency by provider, and turn invocations by front-end. The collector
// satisfies both tool.Monitor and graph.Monitor so one instance wires into
// the whole engine.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records engine metrics into a Prometheus registry.
type Prometheus struct {
	registry *prometheus.Registry

	toolExecutions *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	turns          *prometheus.CounterVec
}

// New creates a collector backed by its own registry, so multiple engine
// instances (or tests) never collide on metric registration.
func New() *Prometheus {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Prometheus{
		registry: registry,
		toolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_tool_executions_total",
			Help: "Total tool executions",
		}, []string{"tool_name", "status"}),
		modelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agent_llm_latency_seconds",
			Help:    "Model request duration in seconds",
			Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"provider"}),
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_invocations_total",
			Help: "Total turn invocations",
		}, []string{"interface"}),
	}
}

// RecordToolCall implements tool.Monitor.
func (p *Prometheus) RecordToolCall(name string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.toolExecutions.WithLabelValues(name, status).Inc()
}

// RecordModelCall implements graph.Monitor.
func (p *Prometheus) RecordModelCall(provider string, elapsed time.Duration, err error) {
	p.modelLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordTurn counts one turn invocation for the given front-end ("cli",
// "http", "scheduler").
func (p *Prometheus) RecordTurn(frontend string) {
	p.turns.WithLabelValues(frontend).Inc()
}

// Handler exposes the registry for scraping, typically mounted at /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
