// Package metrics exposes workflow counters and step timings to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avi3tal/emflow/pkg/types"
)

const namespace = "emflow"

// Metrics records turns, step executions and submitted entries on its own registry.
type Metrics struct {
	registry     *prometheus.Registry
	turns        *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	submitted    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Workflow turns by outcome status.",
		}, []string{"status"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Step executions by node and status.",
		}, []string{"node", "status"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Step execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		submitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submitted_entries_total",
			Help:      "EM entries written by successful submissions.",
		}),
	}
}

func (m *Metrics) ObserveStep(node string, status types.NodeExecutionStatus, elapsed time.Duration) {
	m.steps.WithLabelValues(node, string(status)).Inc()
	m.stepDuration.WithLabelValues(node).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTurn(status string) {
	m.turns.WithLabelValues(status).Inc()
}

func (m *Metrics) AddSubmitted(n int) {
	if n > 0 {
		m.submitted.Add(float64(n))
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
