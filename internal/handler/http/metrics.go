package http

import (
	"net/http"
	"strconv"
	"time"

	"recipe-box/internal/handler/http/pathutil"
	"recipe-box/internal/handler/http/responsewriter"
	"recipe-box/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsMiddleware records HTTP request metrics including duration, size, and status codes.
// It uses path normalization to prevent label cardinality explosion from ID-containing paths.
// The middleware tracks:
// - In-flight requests (gauge incremented/decremented per request)
// - Request duration with optimized histogram buckets
// - Request and response sizes
// - Status code distribution
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		// Example: /api/recipes/local-1700000000000 -> /api/recipes/:id
		normalizedPath := pathutil.NormalizePath(r.URL.Path)

		rw := responsewriter.New(w)

		start := time.Now()
		next.ServeHTTP(rw, r)

		metrics.RecordHTTPRequest(
			r.Method,
			normalizedPath,
			strconv.Itoa(rw.Status()),
			time.Since(start),
			int(r.ContentLength),
			rw.Size(),
		)
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
