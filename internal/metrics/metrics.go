// Package metrics exposes Prometheus collectors for ingestion, retrieval and the SQL path.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ragsearch"

// Metrics groups the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	opLatency     *prometheus.HistogramVec
	ingestedRows  prometheus.Counter
	indexSize     prometheus.Gauge
	embedFailures *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of ingest, search and sql operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ingestedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_rows_total",
			Help:      "Rows written to the index",
		}),
		indexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_vectors",
			Help:      "Vectors held by the served index",
		}),
		embedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_failures_total",
			Help:      "Embedding provider failures",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.opLatency,
		m.ingestedRows,
		m.indexSize,
		m.embedFailures,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveOp records the latency of a named operation.
func (m *Metrics) ObserveOp(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.opLatency.WithLabelValues(op, status(err)).Observe(d.Seconds())
}

// AddIngested counts rows appended to the index.
func (m *Metrics) AddIngested(rows int) {
	if m == nil {
		return
	}
	m.ingestedRows.Add(float64(rows))
}

// SetIndexSize reports the size of the index currently served.
func (m *Metrics) SetIndexSize(n int) {
	if m == nil {
		return
	}
	m.indexSize.Set(float64(n))
}

// EmbeddingFailure counts a provider failure; timeout selects the label.
func (m *Metrics) EmbeddingFailure(timeout bool) {
	if m == nil {
		return
	}
	kind := "error"
	if timeout {
		kind = "timeout"
	}
	m.embedFailures.WithLabelValues(kind).Inc()
}

// HTTPRequest counts a served request.
func (m *Metrics) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
