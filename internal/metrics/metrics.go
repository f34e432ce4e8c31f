// Package metrics provides Prometheus metrics for pdfchat.
//
// All methods are safe to call on a nil *Metrics, so services can run
// without metrics wired in.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Metrics holds all Prometheus metrics for pdfchat.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	DocumentsProcessedTotal *prometheus.CounterVec
	ProcessingDuration      prometheus.Histogram
	ProcessingInFlight      prometheus.Gauge
	ChunksStoredTotal       prometheus.Counter

	// Retrieval metrics
	SearchesTotal         *prometheus.CounterVec
	SearchDuration        prometheus.Histogram
	RetrievalDegradations *prometheus.CounterVec

	// Assembly metrics
	ContextBuildsTotal    prometheus.Counter
	ContextTokens         prometheus.Histogram
	RetrievedDroppedTotal prometheus.Counter
	DeduplicatedTotal     prometheus.Counter
}

// Ensure Metrics implements the interface.
var _ driven.MetricsRecorder = (*Metrics)(nil)

// NewMetrics creates all metrics and registers them on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.DocumentsProcessedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfchat_documents_processed_total",
			Help: "Total number of document processing runs by outcome",
		},
		[]string{"status"},
	)

	m.ProcessingDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfchat_processing_duration_seconds",
			Help:    "Duration of document processing runs in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.ProcessingInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdfchat_processing_in_flight",
			Help: "Number of documents currently being processed",
		},
	)

	m.ChunksStoredTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfchat_chunks_stored_total",
			Help: "Total number of chunks written to the chunk store",
		},
	)

	m.SearchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfchat_searches_total",
			Help: "Total number of similarity searches by outcome",
		},
		[]string{"status"},
	)

	m.SearchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfchat_search_duration_seconds",
			Help:    "Duration of similarity scans in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.RetrievalDegradations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfchat_retrieval_degradations_total",
			Help: "Context builds that fell back to explicit context only, by reason",
		},
		[]string{"reason"},
	)

	m.ContextBuildsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfchat_context_builds_total",
			Help: "Total number of context bundles built",
		},
	)

	m.ContextTokens = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdfchat_context_tokens",
			Help:    "Total tokens per built context bundle",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
	)

	m.RetrievedDroppedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfchat_retrieved_dropped_total",
			Help: "Retrieved contexts dropped to fit the token budget",
		},
	)

	m.DeduplicatedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "pdfchat_retrieved_deduplicated_total",
			Help: "Retrieved contexts dropped because explicit context covered them",
		},
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ProcessingStarted marks a document run as in flight.
func (m *Metrics) ProcessingStarted() {
	if m == nil {
		return
	}
	m.ProcessingInFlight.Inc()
}

// RecordProcessing records the outcome of a document run.
func (m *Metrics) RecordProcessing(status string, chunks int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProcessingInFlight.Dec()
	m.DocumentsProcessedTotal.WithLabelValues(status).Inc()
	m.ProcessingDuration.Observe(duration.Seconds())
	m.ChunksStoredTotal.Add(float64(chunks))
}

// RecordSearch records a similarity search.
func (m *Metrics) RecordSearch(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(duration.Seconds())
}

// RecordDegradation counts a build that skipped retrieval.
func (m *Metrics) RecordDegradation(reason string) {
	if m == nil {
		return
	}
	m.RetrievalDegradations.WithLabelValues(reason).Inc()
}

// RecordBuild records a built bundle.
func (m *Metrics) RecordBuild(tokens, deduplicated, dropped int) {
	if m == nil {
		return
	}
	m.ContextBuildsTotal.Inc()
	m.ContextTokens.Observe(float64(tokens))
	m.DeduplicatedTotal.Add(float64(deduplicated))
	m.RetrievedDroppedTotal.Add(float64(dropped))
}
