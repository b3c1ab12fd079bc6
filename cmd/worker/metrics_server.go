package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgconfig "recipe-box/pkg/config"
	"recipe-box/internal/usecase/snapshot"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// SnapshotStatusResponse describes the most recent snapshot.
type SnapshotStatusResponse struct {
	Taken bool            `json:"taken"`
	Last  *snapshot.Stats `json:"last,omitempty"`
	Files []string        `json:"files"`
}

// lastRunner is the slice of the snapshot service the status endpoint needs.
type lastRunner interface {
	LastRun() (snapshot.Stats, bool)
	List() ([]string, error)
}

// startMetricsServer serves Prometheus metrics and snapshot status on
// METRICS_PORT (default 9090) until ctx is cancelled.
//
// Endpoints:
//   - GET /metrics
//   - GET /health
//   - GET /health/snapshot
func startMetricsServer(ctx context.Context, logger *slog.Logger, snapshots lastRunner) *http.Server {
	port := pkgconfig.GetEnvInt("METRICS_PORT", 9090)
	if port <= 0 || port > 65535 {
		port = 9090
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      metricsMux(snapshots),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		}
	}()

	return server
}

func metricsMux(snapshots lastRunner) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/snapshot", snapshotStatusHandler(snapshots))
	return mux
}

// healthHandler always returns 200 OK with {"status": "healthy"}.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

// snapshotStatusHandler reports the last run and the files on disk.
// It answers 500 only when the snapshot directory cannot be read.
func snapshotStatusHandler(snapshots lastRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		files, err := snapshots.List()
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "snapshot directory unreadable"})
			return
		}
		if files == nil {
			files = []string{}
		}

		resp := SnapshotStatusResponse{Files: files}
		if last, ok := snapshots.LastRun(); ok {
			resp.Taken = true
			resp.Last = &last
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
