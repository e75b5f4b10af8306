// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cargomap_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cargomap_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Container Cache Metrics
	CacheRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_cache_refresh_total",
			Help: "Total number of cache refresh attempts by outcome",
		},
		[]string{"outcome"}, // success, upstream_error, empty_payload, encode_error, write_error
	)

	CacheRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cargomap_cache_refresh_duration_seconds",
			Help:    "Duration of cache refreshes in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CacheLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cargomap_cache_last_success_timestamp_seconds",
			Help: "Unix time of the last successful cache refresh",
		},
	)

	CacheRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cargomap_cache_records",
			Help: "Number of containers in the committed snapshot",
		},
	)

	CacheReadErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cargomap_cache_read_errors_total",
			Help: "Total number of snapshot reads that failed to load or parse",
		},
	)

	JourneyCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_journey_cache_lookups_total",
			Help: "Journey projection cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)

	// Upstream Tracking API Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cargomap_upstream_request_duration_seconds",
			Help:    "Duration of upstream tracking API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_upstream_requests_total",
			Help: "Total upstream tracking API requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	// Refresh Scheduler Metrics
	RefreshRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cargomap_refresh_retries_total",
			Help: "Total number of refresh retries after a failed attempt",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cargomap_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cargomap_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSBroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cargomap_websocket_broadcast_drops_total",
			Help: "Messages dropped because a client or the hub buffer was full",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_events_published_total",
			Help: "Total number of events published by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_events_forwarded_total",
			Help: "Total number of events forwarded to WebSocket clients",
		},
		[]string{"topic"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cargomap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cargomap_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cargomap_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
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

// RecordUpstreamRequest records one upstream call. status is the HTTP status
// code as text, or "error" for transport failures.
func RecordUpstreamRequest(operation, status string, duration time.Duration) {
	UpstreamRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	UpstreamRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordEventPublish records a publish attempt on topic.
func RecordEventPublish(topic string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}
