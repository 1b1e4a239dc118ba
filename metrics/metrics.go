// Package metrics declares the Prometheus collectors shared by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jarvisfi_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPLatency tracks request latency per route pattern.
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jarvisfi_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ChatIntents counts classified chat intents.
	ChatIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jarvisfi_chat_intents_total",
			Help: "Chat messages by classified intent and language",
		},
		[]string{"intent", "language"},
	)

	// ChatGenerator counts which generator produced each chat response.
	ChatGenerator = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jarvisfi_chat_generator_total",
			Help: "Chat responses by generator and cache status",
		},
		[]string{"generator", "cached"},
	)

	// CacheOperations counts cache lookups by result (hit, miss, error).
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jarvisfi_cache_operations_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"},
	)

	// Fallbacks counts fallback responses served when a dependency failed.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jarvisfi_fallbacks_total",
			Help: "Fallback responses by component",
		},
		[]string{"component"},
	)

	// BreakerState reports circuit breaker state (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jarvisfi_circuit_breaker_state",
			Help: "Circuit breaker state by name",
		},
		[]string{"name"},
	)

	// RateLimited counts throttled requests by window.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jarvisfi_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by window",
		},
		[]string{"window"},
	)

	// StreamClients tracks connected notification stream clients.
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jarvisfi_notification_stream_clients",
			Help: "Number of connected notification stream clients",
		},
	)

	// JobRuns counts background job executions by job and outcome.
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jarvisfi_background_job_runs_total",
			Help: "Background job runs by job and outcome",
		},
		[]string{"job", "outcome"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
