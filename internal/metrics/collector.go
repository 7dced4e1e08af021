// Package metrics provides Prometheus metrics for the exchange.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Search modes recorded on discovery metrics.
const (
	ModeStructured = "structured"
	ModeIntent     = "intent"
)

// Collector records exchange metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Discovery metrics
	searchesTotal    *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	searchCandidates *prometheus.HistogramVec
	searchResults    *prometheus.HistogramVec

	// Registration metrics
	registrationsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector with metrics under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logger.With(zap.String("component", "metrics")),
	}
	factory := promauto.With(c.registry)

	c.httpRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	c.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	c.searchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discovery_searches_total",
		Help:      "Total number of discovery searches",
	}, []string{"mode", "outcome"})

	c.searchDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "discovery_search_duration_seconds",
		Help:      "Discovery search duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"mode"})

	c.searchCandidates = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "discovery_candidates",
		Help:      "Number of candidates fetched from the store per search",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
	}, []string{"mode"})

	c.searchResults = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "discovery_results",
		Help:      "Number of agents returned per search",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
	}, []string{"mode"})

	c.registrationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_registrations_total",
		Help:      "Total number of agent registration attempts",
	}, []string{"outcome"})

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSearch records one discovery search. outcome is "ok" or an error class.
func (c *Collector) RecordSearch(mode, outcome string, candidates, results int, duration time.Duration) {
	c.searchesTotal.WithLabelValues(mode, outcome).Inc()
	c.searchDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if outcome == "ok" {
		c.searchCandidates.WithLabelValues(mode).Observe(float64(candidates))
		c.searchResults.WithLabelValues(mode).Observe(float64(results))
	}
}

// RecordRegistration records a registration attempt outcome.
func (c *Collector) RecordRegistration(outcome string) {
	c.registrationsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
