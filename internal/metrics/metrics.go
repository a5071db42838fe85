// SPDX-License-Identifier: MPL-2.0

// Package metrics collects load measurements with Prometheus collectors and
// writes them in the Prometheus text exposition format.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/loader"
	"github.com/loomkit/loom/internal/report"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "loom"

// Collector implements loader.Recorder on a private Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	attempts *prometheus.CounterVec
	passes   *prometheus.GaugeVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ loader.Recorder = (*Collector)(nil)

// NewCollector creates a collector. An empty namespace uses DefaultNamespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := &Collector{registry: prometheus.NewRegistry()}

	c.attempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "attempts_total",
			Help:      "Construction attempts by category and outcome.",
		},
		[]string{"category", "outcome"},
	)
	c.passes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "passes",
			Help:      "Passes run by the last load, per phase.",
		},
		[]string{"phase"},
	)
	c.failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "failures_total",
			Help:      "Reported failures by kind.",
		},
		[]string{"kind"},
	)
	c.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each load phase.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		},
		[]string{"phase"},
	)

	c.registry.MustRegister(c.attempts, c.passes, c.failures, c.duration)
	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveAttempt counts one construction attempt.
func (c *Collector) ObserveAttempt(category catalog.Category, outcome loader.Outcome) {
	c.attempts.WithLabelValues(category.String(), string(outcome)).Inc()
}

// ObservePasses records the number of passes a phase ran.
func (c *Collector) ObservePasses(phase report.Phase, passes int) {
	c.passes.WithLabelValues(string(phase)).Set(float64(passes))
}

// ObserveFailure counts one reported failure.
func (c *Collector) ObserveFailure(kind report.Kind) {
	c.failures.WithLabelValues(string(kind)).Inc()
}

// ObserveDuration records the time a phase took.
func (c *Collector) ObserveDuration(phase report.Phase, d time.Duration) {
	c.duration.WithLabelValues(string(phase)).Observe(d.Seconds())
}

// Write gathers the registry and writes it to w in the text exposition format.
func (c *Collector) Write(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
