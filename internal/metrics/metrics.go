// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

// Package metrics holds the Prometheus instrumentation for the service.
//
// Every collector is registered on the default registry through promauto
// and exposed by the HTTP layer at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Vector Index Metrics
	VectorIndexDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vector_index_operation_duration_seconds",
			Help:    "Duration of vector index operations in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation"}, // operation: "reconstruct", "search", "add"
	)

	VectorIndexErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vector_index_errors_total",
			Help: "Total number of failed vector index operations",
		},
		[]string{"backend", "operation"},
	)

	IndexVectors = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vector_index_vectors",
			Help: "Number of vectors held by the index",
		},
		[]string{"backend"},
	)

	// Related Articles Metrics
	RelatedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "related_requests_total",
			Help: "Total number of related-article computations by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "embedding_missing", "unavailable", "error"
	)

	RelatedDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "related_request_duration_seconds",
			Help:    "Duration of related-article computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	CandidatePoolSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "related_candidate_pool_size",
			Help:    "Number of candidates alive after each pipeline stage",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50, 75, 100},
		},
		[]string{"stage"}, // "retrieved", "filtered"
	)

	// Result Cache Metrics
	ResultCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "related_cache_hits_total",
			Help: "Total number of related-article cache hits",
		},
	)

	ResultCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "related_cache_misses_total",
			Help: "Total number of related-article cache misses",
		},
	)

	ResultCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "related_cache_entries",
			Help: "Current number of cached related-article results",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Loader Metrics
	LoaderRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_records_total",
			Help: "Total number of article records handled by the loader",
		},
		[]string{"outcome"}, // "loaded", "skipped", "invalid", "embedded"
	)

	PageviewDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pageview_downloads_total",
			Help: "Total number of pageview dump download attempts",
		},
		[]string{"result"}, // "downloaded", "exists", "retry", "failed"
	)

	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding provider calls",
		},
		[]string{"provider", "result"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordVectorOp records a vector index operation.
func RecordVectorOp(backend, operation string, duration time.Duration, err error) {
	VectorIndexDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		VectorIndexErrors.WithLabelValues(backend, operation).Inc()
	}
}

// SetIndexVectors publishes the vector count of a backend.
func SetIndexVectors(backend string, n int) {
	IndexVectors.WithLabelValues(backend).Set(float64(n))
}

// RecordRelatedRequest records one related-article computation.
func RecordRelatedRequest(outcome string, duration time.Duration) {
	RelatedRequests.WithLabelValues(outcome).Inc()
	RelatedDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveCandidatePool records how many candidates survived a stage.
func ObserveCandidatePool(stage string, n int) {
	CandidatePoolSize.WithLabelValues(stage).Observe(float64(n))
}

// RecordCacheLookup records a result cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		ResultCacheHits.Inc()
	} else {
		ResultCacheMisses.Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordLoaderRecords adds n records to the given loader outcome.
func RecordLoaderRecords(outcome string, n int) {
	if n <= 0 {
		return
	}
	LoaderRecords.WithLabelValues(outcome).Add(float64(n))
}

// RecordEmbeddingRequest counts one embedding provider call.
func RecordEmbeddingRequest(provider string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EmbeddingRequests.WithLabelValues(provider, result).Inc()
}

// RecordPageviewDownload counts one dump download attempt by result.
func RecordPageviewDownload(result string) {
	PageviewDownloads.WithLabelValues(result).Inc()
}
