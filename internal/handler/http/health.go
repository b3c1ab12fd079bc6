// Package http provides HTTP handlers and middleware for the web application.
// It includes health check endpoints, metrics collection, request logging,
// panic recovery, rate limiting and request size limits. Recipe endpoints
// live in the recipe and web subpackages.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"recipe-box/internal/observability/metrics"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`            // "healthy", "degraded" or "unhealthy"
	Message string                 `json:"message,omitempty"` // Optional status message
	Details map[string]interface{} `json:"details,omitempty"` // Optional additional details
}

// CSPHealthInfo contains health information for CSP middleware.
type CSPHealthInfo struct {
	Enabled    bool `json:"enabled"`     // Whether CSP is enabled
	ReportOnly bool `json:"report_only"` // Whether CSP is in report-only mode
}

// Pinger is satisfied by every key-value backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SQLBacked is implemented by the SQL key-value backends.
type SQLBacked interface {
	DB() *sql.DB
}

// BreakerState reports the state of a circuit breaker.
type BreakerState interface {
	State() gobreaker.State
}

// HealthHandler handles health check endpoint requests.
// It pings the recipe store, reports SQL pool statistics when the store is
// SQL-backed, and reports the remote API circuit breaker state.
type HealthHandler struct {
	Store   Pinger
	Version string

	// RemoteBreaker is the remote recipe API breaker (optional). An open
	// breaker degrades search but is not unhealthy.
	RemoteBreaker BreakerState

	// CSP status (optional)
	CSPEnabled    bool
	CSPReportOnly bool
}

// ServeHTTP performs health checks and returns the application health status.
// Returns 200 OK if healthy, or 503 Service Unavailable if any check fails.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	allHealthy := true

	if h.Store != nil {
		storeCheck := h.checkStore(ctx)
		checks["store"] = storeCheck
		if storeCheck.Status == "unhealthy" {
			allHealthy = false
		}
	} else {
		checks["store"] = CheckStatus{
			Status:  "unhealthy",
			Message: "not configured",
		}
		allHealthy = false
	}

	if h.RemoteBreaker != nil {
		checks["remote_api"] = h.checkRemote()
	}

	if h.CSPEnabled {
		checks["csp"] = CheckStatus{
			Status: "healthy",
			Details: map[string]interface{}{"config": CSPHealthInfo{
				Enabled:    h.CSPEnabled,
				ReportOnly: h.CSPReportOnly,
			}},
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkStore pings the store and, for SQL backends, reports pool statistics.
func (h *HealthHandler) checkStore(ctx context.Context) CheckStatus {
	if err := h.Store.Ping(ctx); err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}

	sqlStore, ok := h.Store.(SQLBacked)
	if !ok || sqlStore.DB() == nil {
		return CheckStatus{Status: "healthy"}
	}

	stats := sqlStore.DB().Stats()
	metrics.RecordDBStats(stats.InUse, stats.Idle)
	details := map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	// Guard against zero division when MaxOpenConnections is 0 (unlimited/unconfigured)
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilizationPercent := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilizationPercent
	if utilizationPercent >= 80.0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{
		Status:  "healthy",
		Details: details,
	}
}

func (h *HealthHandler) checkRemote() CheckStatus {
	state := h.RemoteBreaker.State()
	check := CheckStatus{
		Status:  "healthy",
		Details: map[string]interface{}{"circuit_breaker": state.String()},
	}
	if state == gobreaker.StateOpen {
		check.Status = "degraded"
		check.Message = "remote recipe API unavailable, serving local recipes only"
	}
	return check
}

// ReadyHandler handles Kubernetes readiness probe requests.
// It checks that the recipe store answers.
type ReadyHandler struct {
	Store Pinger
}

// ServeHTTP returns 200 OK if the store is ready, or 503 Service Unavailable.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Store == nil {
		http.Error(w, "store not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.Store.Ping(ctx); err != nil {
		http.Error(w, "store not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler handles Kubernetes liveness probe requests.
// It performs a lightweight check to verify the application is responsive.
type LiveHandler struct{}

// ServeHTTP performs a simple liveness check and always returns 200 OK
// if the application is running and able to respond.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
