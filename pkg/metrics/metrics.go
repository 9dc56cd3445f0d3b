// Package metrics provides Prometheus instrumentation for the dispatch
// pipeline: request counts, latency, in-flight gauge, and error counts,
// labeled by method, matched route pattern, and status class.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config defines the configuration for a Collector.
type Config struct {
	// Namespace for all metric names, e.g. "plume".
	Namespace string

	// Subsystem for all metric names, e.g. "http".
	Subsystem string

	// Registry to register the collectors with. A private registry is
	// created when nil.
	Registry *prometheus.Registry

	// DurationBuckets overrides the latency histogram buckets. Defaults
	// to prometheus.DefBuckets.
	DurationBuckets []float64
}

// Collector records per-request metrics for the engine. Create one per
// process and share it between the metrics middleware and the exposition
// handler.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector(config Config) *Collector {
	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	buckets := config.DurationBuckets
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of dispatched requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Request latency from dispatch start to response commit.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "request_errors_total",
			Help:      "Total number of requests answered with a 4xx or 5xx status.",
		}, []string{"method", "route", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_in_flight",
			Help:      "Number of exchanges currently inside the dispatch pipeline.",
		}),
	}

	registry.MustRegister(c.requestsTotal, c.requestDuration, c.requestErrors, c.inFlight)
	return c
}

// ObserveRequest records one completed exchange. route is the matched
// route's registration string (use a fixed marker like "<not found>" for
// unmatched requests to keep cardinality bounded).
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	c.requestsTotal.WithLabelValues(method, route, code).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if status >= 400 {
		c.requestErrors.WithLabelValues(method, route, code).Inc()
	}
}

// IncInFlight marks one exchange entering the pipeline.
func (c *Collector) IncInFlight() { c.inFlight.Inc() }

// DecInFlight marks one exchange leaving the pipeline.
func (c *Collector) DecInFlight() { c.inFlight.Dec() }

// Registry returns the Prometheus registry the collectors live in.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler returns an HTTP handler exposing the collected metrics in
// Prometheus exposition format. Mount it on an operational endpoint
// outside the engine.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
