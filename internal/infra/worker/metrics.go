package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"recipe-box/internal/pkg/config"
)

// WorkerMetrics tracks configuration fallbacks and snapshot job runs.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts runs by status (success, failure).
	JobRunsTotal *prometheus.CounterVec

	JobDurationSeconds prometheus.Histogram

	// RecipesSnapshottedTotal accumulates the recipes written across runs.
	RecipesSnapshottedTotal prometheus.Counter

	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with reg.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics(reg, "worker"),

		JobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_snapshot_runs_total",
			Help: "Total snapshot job runs by status",
		}, []string{"status"}),

		JobDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_snapshot_duration_seconds",
			Help:    "Duration of snapshot job runs in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 30, 120},
		}),

		RecipesSnapshottedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_snapshot_recipes_total",
			Help: "Total recipes written across snapshot runs",
		}),

		LastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_snapshot_last_success_timestamp",
			Help: "Unix timestamp of the last successful snapshot",
		}),
	}
}

// RecordRun records the outcome of one job run.
func (m *WorkerMetrics) RecordRun(err error, seconds float64, recipes int) {
	m.JobDurationSeconds.Observe(seconds)
	if err != nil {
		m.JobRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.JobRunsTotal.WithLabelValues("success").Inc()
	m.RecipesSnapshottedTotal.Add(float64(recipes))
	m.LastSuccessTimestamp.SetToCurrentTime()
}
