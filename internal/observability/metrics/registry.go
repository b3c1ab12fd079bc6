// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks the number of HTTP requests being served
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Recipe metrics track the local store, the merge-search and the remote catalogue
var (
	// LocalRecipesTotal tracks the number of recipes in the local store
	LocalRecipesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipe_local_total",
			Help: "Number of user-authored recipes in the local store",
		},
	)

	// StoreOperationsTotal counts local store operations by result
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_store_operations_total",
			Help: "Total number of local recipe store operations",
		},
		[]string{"op", "result"}, // op: load, add, remove; result: success, failure, corrupt
	)

	// SearchesTotal counts merge-searches by outcome
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_search_total",
			Help: "Total number of recipe searches",
		},
		[]string{"result"}, // result: hit, empty, remote_degraded
	)

	// SearchResults measures how many recipes each search returns, split by origin
	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_search_results",
			Help:    "Number of recipes returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"origin"}, // origin: local, remote
	)

	// RemoteFetchTotal counts calls to the remote recipe API
	RemoteFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_remote_fetch_total",
			Help: "Total number of remote recipe API calls",
		},
		[]string{"endpoint", "result"}, // endpoint: search, lookup; result: success, failure, throttled
	)

	// RemoteFetchDuration measures remote recipe API latency
	RemoteFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_remote_fetch_duration_seconds",
			Help:    "Remote recipe API call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4},
		},
		[]string{"endpoint"},
	)

	// ImageProxyTotal counts thumbnail proxy requests by result
	ImageProxyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_image_proxy_total",
			Help: "Total number of image thumbnail requests",
		},
		[]string{"result"}, // result: success, cache_hit, failure, rejected, too_large, unsupported
	)
)

// Rate limiter metrics
var (
	RateLimitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_rejected_total",
			Help: "Requests rejected with 429 by a per-client rate limiter",
		},
		[]string{"limiter"},
	)

	// RateLimitClients is the number of client addresses a limiter tracks
	RateLimitClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_rate_limit_clients",
			Help: "Client addresses currently tracked by a rate limiter",
		},
		[]string{"limiter"},
	)
)

// Store backend metrics cover whichever key-value backend holds the recipes
var (
	// DBQueryDuration measures key-value reads and writes
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Store backend operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"}, // operation: kv_get, kv_put
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordDBStats publishes connection pool statistics of a SQL-backed store
func RecordDBStats(inUse, idle int) {
	DBConnectionsActive.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
}

// SetCircuitBreakerState publishes a breaker transition; state follows gobreaker.State
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordOperationDuration records the duration of a store backend call
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
