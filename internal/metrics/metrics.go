// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the incubator collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sessionsCreated  prometheus.Counter
	sessionsDeleted  prometheus.Counter
	decodeFailures   prometheus.Counter
	storeDuration    *prometheus.HistogramVec
	actionDueBatches prometheus.Gauge
}

// New registers all collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "incubator_sessions_created_total",
			Help: "Incubation sessions persisted.",
		}),
		sessionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "incubator_sessions_deleted_total",
			Help: "Delete requests applied to the session store.",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "incubator_decode_failures_total",
			Help: "Stored batch lists that could not be decoded and were loaded empty.",
		}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "incubator_store_operation_duration_seconds",
			Help:    "Latency of session store operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"operation"}),
		actionDueBatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "incubator_action_due_batches",
			Help: "Batches whose eggs had to be inserted at the last digest run.",
		}),
	}
	reg.MustRegister(
		m.sessionsCreated,
		m.sessionsDeleted,
		m.decodeFailures,
		m.storeDuration,
		m.actionDueBatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SessionCreated() {
	if m != nil {
		m.sessionsCreated.Inc()
	}
}

func (m *Metrics) SessionDeleted() {
	if m != nil {
		m.sessionsDeleted.Inc()
	}
}

func (m *Metrics) DecodeFailed() {
	if m != nil {
		m.decodeFailures.Inc()
	}
}

// SetActionDue records how many batches were due at the last digest.
func (m *Metrics) SetActionDue(n int) {
	if m != nil {
		m.actionDueBatches.Set(float64(n))
	}
}

// ObserveStore returns a func that records the elapsed time of operation when called.
//
//	defer m.ObserveStore("insert")()
func (m *Metrics) ObserveStore(operation string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.storeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
