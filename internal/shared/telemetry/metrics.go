package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the baseline service.
// A nil *Metrics or a disabled one records nothing.
type Metrics struct {
	compareRuns     *prometheus.CounterVec
	compareDuration *prometheus.HistogramVec
	compareRows     *prometheus.HistogramVec
	baselinesSaved  *prometheus.CounterVec
	baselineNodes   prometheus.Histogram
	exports         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics(enabled bool, namespace string) *Metrics {
	if !enabled {
		return &Metrics{}
	}
	registry := prometheus.NewRegistry()
	rowBuckets := prometheus.ExponentialBuckets(10, 4, 8)

	m := &Metrics{
		registry: registry,
		compareRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compare_runs_total",
				Help:      "Total number of baseline comparisons",
			},
			[]string{"cache"},
		),
		compareDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compare_duration_seconds",
				Help:      "Time spent flattening and matching two baselines",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"sort"},
		),
		compareRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compare_rows",
				Help:      "Number of matched rows per comparison",
				Buckets:   rowBuckets,
			},
			[]string{"sort"},
		),
		baselinesSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "baselines_saved_total",
				Help:      "Total number of baselines created",
			},
			[]string{"source"},
		),
		baselineNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "baseline_nodes",
				Help:      "Number of part nodes in a saved baseline",
				Buckets:   rowBuckets,
			},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compare_exports_total",
				Help:      "Total number of comparison exports",
			},
			[]string{"format"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.compareRuns,
		m.compareDuration,
		m.compareRows,
		m.baselinesSaved,
		m.baselineNodes,
		m.exports,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// RecordCompare records one comparison; cached reports whether the rows came from the cache.
func (m *Metrics) RecordCompare(sortMode string, rows int, cached bool, duration time.Duration) {
	if m == nil || m.compareRuns == nil {
		return
	}
	cache := "miss"
	if cached {
		cache = "hit"
	}
	m.compareRuns.WithLabelValues(cache).Inc()
	if !cached {
		m.compareDuration.WithLabelValues(sortMode).Observe(duration.Seconds())
	}
	m.compareRows.WithLabelValues(sortMode).Observe(float64(rows))
}

// RecordBaselineSaved records a newly stored baseline.
func (m *Metrics) RecordBaselineSaved(source string, nodes int) {
	if m == nil || m.baselinesSaved == nil {
		return
	}
	m.baselinesSaved.WithLabelValues(source).Inc()
	m.baselineNodes.Observe(float64(nodes))
}

// RecordExport records one comparison export.
func (m *Metrics) RecordExport(format string) {
	if m == nil || m.exports == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Registry exposes the underlying registry, nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the HTTP handler serving the collectors.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
