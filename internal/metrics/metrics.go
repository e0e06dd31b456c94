// Package metrics exposes Prometheus instruments for the HTTP and MCP transports.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Interpretation metrics
	Interpretations  *prometheus.CounterVec
	Phenoconversions *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace on a private registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	interpretations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interpretations_total",
			Help:      "Total number of interpretation operations by transport, operation and outcome code",
		},
		[]string{"transport", "operation", "outcome"},
	)

	phenoconversions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phenoconversions_total",
			Help:      "Total number of phenotypes adjusted for an inhibiting drug",
		},
		[]string{"gene"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		interpretations,
		phenoconversions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:         registry,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
		Interpretations:  interpretations,
		Phenoconversions: phenoconversions,
	}
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordInterpretation records the outcome of an interpretation operation. An empty
// outcome counts as success.
func (c *Collector) RecordInterpretation(transport, operation, outcome string) {
	if outcome == "" {
		outcome = "OK"
	}
	c.Interpretations.WithLabelValues(transport, operation, outcome).Inc()
}

// RecordPhenoconversion counts an adjusted phenotype for gene.
func (c *Collector) RecordPhenoconversion(gene string) {
	c.Phenoconversions.WithLabelValues(gene).Inc()
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
