// Salesight - Retail Recommendation and Price Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salesight

// Package metrics exposes the Prometheus collectors of Salesight.
//
// Collectors are package-level and registered with the default registry
// through promauto; the HTTP layer serves them on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesight_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesight_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salesight_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesight_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesight_recommendations_total",
			Help: "Recommendations served, by experiment bucket and whether popularity fallback was used",
		},
		[]string{"bucket", "fallback"},
	)

	SimilarityBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salesight_similarity_build_duration_seconds",
			Help:    "Time to build a similarity matrix",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"projection"},
	)

	SimilarityMatrixItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "salesight_similarity_matrix_items",
			Help: "Item count of the most recently built similarity matrix",
		},
		[]string{"projection"},
	)

	SimilarityCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salesight_similarity_cache_hits_total",
			Help: "Similarity matrix cache hits",
		},
	)

	SimilarityCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salesight_similarity_cache_misses_total",
			Help: "Similarity matrix cache misses",
		},
	)

	// Event Log Metrics
	EventLogWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salesight_eventlog_writes_total",
			Help: "Recommendation events persisted",
		},
	)

	EventLogFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesight_eventlog_failures_total",
			Help: "Recommendation events lost, by reason",
		},
		[]string{"reason"}, // "write", "queue_full", "closed", "breaker_open"
	)

	EventLogQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "salesight_eventlog_queue_depth",
			Help: "Events waiting for the writer",
		},
	)

	// Forecast Metrics
	ForecastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesight_forecasts_total",
			Help: "Price forecasts by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "unavailable", "error"
	)

	ForecastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salesight_forecast_duration_seconds",
			Help:    "End-to-end price forecast duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ForecastDiffOrder = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salesight_forecast_diff_order",
			Help:    "Differencing order chosen by the stationarity transformer",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// Ingest Metrics
	IngestMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salesight_ingest_messages_total",
			Help: "Ingest messages handled, by topic and outcome",
		},
		[]string{"topic", "outcome"}, // outcome: "stored", "logged", "invalid", "duplicate", "error"
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation counts one served recommendation.
func RecordRecommendation(bucket int, fallback bool) {
	RecommendationsTotal.WithLabelValues(strconv.Itoa(bucket), strconv.FormatBool(fallback)).Inc()
}

// RecordSimilarityBuild records the build time and size of a similarity matrix.
func RecordSimilarityBuild(projection string, items int, duration time.Duration) {
	SimilarityBuildDuration.WithLabelValues(projection).Observe(duration.Seconds())
	SimilarityMatrixItems.WithLabelValues(projection).Set(float64(items))
}

// RecordSimilarityCache counts a similarity cache lookup.
func RecordSimilarityCache(hit bool) {
	if hit {
		SimilarityCacheHits.Inc()
	} else {
		SimilarityCacheMisses.Inc()
	}
}

// RecordEventLogWrite counts persisted events.
func RecordEventLogWrite(n int) {
	EventLogWrites.Add(float64(n))
}

// RecordEventLogFailure counts lost events.
func RecordEventLogFailure(reason string, n int) {
	EventLogFailures.WithLabelValues(reason).Add(float64(n))
}

// RecordForecast records a forecast outcome and its duration.
func RecordForecast(outcome string, duration time.Duration) {
	ForecastsTotal.WithLabelValues(outcome).Inc()
	ForecastDuration.Observe(duration.Seconds())
}

// RecordIngestMessage counts a handled ingest message.
func RecordIngestMessage(topic, outcome string) {
	IngestMessagesTotal.WithLabelValues(topic, outcome).Inc()
}
