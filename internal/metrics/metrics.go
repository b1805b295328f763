// Package metrics exposes Prometheus metrics for the auth operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
)

// Recorder is what the auth service and transports report into
type Recorder interface {
	ObserveOperation(operation, outcome string, duration time.Duration)
	RecordRateLimited(purpose string)
}

// Collector is the Prometheus-backed Recorder
type Collector struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Auth operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_operation_duration_seconds",
			Help:    "Auth operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"purpose"}),
	}

	reg.MustRegister(c.operations, c.duration, c.rateLimited)

	return c
}

func (c *Collector) ObserveOperation(operation, outcome string, duration time.Duration) {
	c.operations.WithLabelValues(operation, outcome).Inc()
	c.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordRateLimited(purpose string) {
	c.rateLimited.WithLabelValues(purpose).Inc()
}

// Nop discards everything
type Nop struct{}

func (Nop) ObserveOperation(string, string, time.Duration) {}
func (Nop) RecordRateLimited(string)                       {}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
