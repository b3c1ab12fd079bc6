package http

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"recipe-box/internal/observability/metrics"
)

// TestMetricsMiddleware_PathNormalization checks that id-bearing paths are
// recorded under a single normalized label.
func TestMetricsMiddleware_PathNormalization(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()
	metrics.HTTPRequestDuration.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	tests := []struct {
		name         string
		path         string
		expectedPath string
	}{
		{
			name:         "remote recipe id is normalized",
			path:         "/api/recipes/52772",
			expectedPath: "/api/recipes/:id",
		},
		{
			name:         "local recipe id is normalized",
			path:         "/recipes/local-1700000000000",
			expectedPath: "/recipes/:id",
		},
		{
			name:         "delete form action is normalized",
			path:         "/recipes/local-1/delete",
			expectedPath: "/recipes/:id/delete",
		},
		{
			name:         "static endpoint is unchanged",
			path:         "/health",
			expectedPath: "/health",
		},
		{
			name:         "search endpoint is unchanged",
			path:         "/api/recipes/search",
			expectedPath: "/api/recipes/search",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", tt.expectedPath, "200"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", tt.expectedPath, "200"))
			if after-before != 1 {
				t.Errorf("expected one request recorded under %q, got %v", tt.expectedPath, after-before)
			}
		})
	}
}

// TestMetricsMiddleware_CardinalityReduction shows many recipe ids collapse into one series.
func TestMetricsMiddleware_CardinalityReduction(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ids := []string{"52772", "52773", "local-1", "local-2", "local-1700000000000", "53000"}
	for _, id := range ids {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/recipes/"+id, nil))
	}

	if got := testutil.CollectAndCount(metrics.HTTPRequestsTotal); got != 1 {
		t.Errorf("expected 1 series for %d recipe ids, got %d", len(ids), got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/recipes/:id", "200")); got != float64(len(ids)) {
		t.Errorf("expected %d requests, got %v", len(ids), got)
	}
}

// TestMetricsMiddleware_QueryParameters checks the query string never reaches the path label.
func TestMetricsMiddleware_QueryParameters(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, target := range []string{
		"/api/recipes/search?q=chicken",
		"/api/recipes/search?q=paneer",
		"/api/recipes/search?q=dal&page=2",
	} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/recipes/search", "200")); got != 3 {
		t.Errorf("expected 3 requests under /api/recipes/search, got %v", got)
	}
}

func TestMetricsMiddleware_InFlight(t *testing.T) {
	var during float64
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.HTTPRequestsInFlight)
	}))

	before := testutil.ToFloat64(metrics.HTTPRequestsInFlight)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("in-flight during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.HTTPRequestsInFlight); after != before {
		t.Errorf("in-flight after request = %v, want %v", after, before)
	}
}

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusBadRequest, http.StatusNotFound, http.StatusBadGateway} {
		handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/recipes", nil))

		got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/recipes", strconv.Itoa(code)))
		if got != 1 {
			t.Errorf("status %d: expected 1 request recorded, got %v", code, got)
		}
	}
}

func TestMetricsMiddleware_Sizes(t *testing.T) {
	metrics.HTTPRequestSize.Reset()
	metrics.HTTPResponseSize.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 500)))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader(`{"name":"Idli"}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.CollectAndCount(metrics.HTTPRequestSize); got != 1 {
		t.Errorf("expected request size observed once, got %d series", got)
	}
	if got := testutil.CollectAndCount(metrics.HTTPResponseSize); got != 1 {
		t.Errorf("expected response size observed once, got %d series", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	metrics.RecordSearch(1, 2, false)

	rr := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status OK; got %v", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "recipe_search_total") {
		t.Error("metrics output does not include recipe_search_total")
	}
}

// BenchmarkMetricsMiddleware benchmarks the complete middleware with normalization.
func BenchmarkMetricsMiddleware(b *testing.B) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	paths := []string{
		"/api/recipes/52772",
		"/recipes/local-1700000000000",
		"/health",
		"/api/recipes/search",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, paths[i%len(paths)], nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
