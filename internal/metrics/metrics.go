// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package metrics holds the Prometheus collectors for Clickboard.
//
// Collectors are registered on the default registry at init and exposed by
// the local API on /metrics:
//   - analytics fetches (outcome, latency, stale discards)
//   - interaction tracking (filter and click events, throttled clicks, optimistic patches)
//   - backend circuit breaker and response cache
//   - local API requests and WebSocket clients
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeFailed  = "failed"
	OutcomeStale   = "stale"
)

// Tracking event kinds.
const (
	KindFilter = "filter"
	KindClick  = "click"
)

var (
	// Analytics
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickboard_fetch_total",
			Help: "Analytics fetches by outcome",
		},
		[]string{"outcome"}, // applied, failed, stale
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clickboard_fetch_duration_seconds",
			Help:    "Duration of GET /track/analytics calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// Tracking
	TrackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickboard_track_total",
			Help: "Tracking events sent to the backend",
		},
		[]string{"kind", "outcome"}, // kind: filter, click; outcome: success, failure
	)

	ClickThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clickboard_click_throttled_total",
			Help: "Bar clicks dropped by the global click throttle",
		},
	)

	OptimisticUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clickboard_optimistic_updates_total",
			Help: "Bar data patched locally ahead of backend confirmation",
		},
	)

	// Backend client
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clickboard_backend_requests_total",
			Help: "Requests made to the analytics backend",
		},
		[]string{"endpoint", "status"},
	)

	BackendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clickboard_backend_cache_hits_total",
			Help: "Backend GET responses served from the local cache",
		},
	)

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
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Local API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of local API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Local API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "route"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clickboard_ws_clients",
			Help: "Connected dashboard WebSocket clients",
		},
	)
)

// RecordFetch records one analytics fetch.
func RecordFetch(outcome string, duration time.Duration) {
	FetchTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeStale {
		FetchDuration.Observe(duration.Seconds())
	}
}

// RecordTrack records one tracking call.
func RecordTrack(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	TrackTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAPIRequest records one local API request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
