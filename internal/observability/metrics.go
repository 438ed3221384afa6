package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Analysis metrics
	Analyses         *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	Fallbacks        *prometheus.CounterVec

	// Graph metrics
	GraphQueries       *prometheus.CounterVec
	GraphQueryDuration prometheus.Histogram

	// Schema cache metrics
	SchemaCacheHits      prometheus.Counter
	SchemaCacheMisses    prometheus.Counter
	SchemaRefreshFailure prometheus.Counter

	// Notifications
	Notifications *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Analyses run, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Analysis duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Times an analysis fell back from the graph to the local store",
			},
			[]string{"kind"},
		),
		GraphQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_queries_total",
				Help:      "Graph queries by status",
			},
			[]string{"status"},
		),
		GraphQueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_query_duration_seconds",
				Help:      "Graph query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SchemaCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_cache_hits_total",
			Help:      "Schema cache hits",
		}),
		SchemaCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_cache_misses_total",
			Help:      "Schema cache misses",
		}),
		SchemaRefreshFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_refresh_failures_total",
			Help:      "Failed schema refreshes",
		}),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Impact notifications by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Analyses,
		c.AnalysisDuration,
		c.Fallbacks,
		c.GraphQueries,
		c.GraphQueryDuration,
		c.SchemaCacheHits,
		c.SchemaCacheMisses,
		c.SchemaRefreshFailure,
		c.Notifications,
	)
	return c
}

// Registry exposes the registry for tests and custom exporters.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveAnalysis records one analysis call.
func (c *Collector) ObserveAnalysis(kind, outcome string, duration time.Duration) {
	c.Analyses.WithLabelValues(kind, outcome).Inc()
	c.AnalysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveFallback records a graph-to-local fallback.
func (c *Collector) ObserveFallback(kind string) {
	c.Fallbacks.WithLabelValues(kind).Inc()
}

// ObserveGraphQuery records one guarded graph query.
func (c *Collector) ObserveGraphQuery(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.GraphQueries.WithLabelValues(status).Inc()
	c.GraphQueryDuration.Observe(duration.Seconds())
}

func (c *Collector) SchemaCacheHit()      { c.SchemaCacheHits.Inc() }
func (c *Collector) SchemaCacheMiss()     { c.SchemaCacheMisses.Inc() }
func (c *Collector) SchemaRefreshFailed() { c.SchemaRefreshFailure.Inc() }

// ObserveNotification records a publish attempt.
func (c *Collector) ObserveNotification(err error) {
	status := "published"
	if err != nil {
		status = "failed"
	}
	c.Notifications.WithLabelValues(status).Inc()
}
