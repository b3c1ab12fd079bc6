// Package worker holds the runtime scaffolding of the snapshot worker: its
// fail-open configuration, Prometheus metrics and health endpoints.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"recipe-box/internal/pkg/config"
)

// WorkerConfig controls when and how the snapshot job runs.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression, e.g. "0 3 * * *".
	CronSchedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string

	// JobTimeout bounds one snapshot run.
	JobTimeout time.Duration

	// HealthPort serves /health and /health/ready.
	HealthPort int
}

// Bounds accepted for JobTimeout and HealthPort.
const (
	minJobTimeout = 10 * time.Second
	maxJobTimeout = time.Hour
	minPort       = 1024
	maxPort       = 65535
)

// DefaultConfig returns a nightly 03:00 UTC schedule.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 3 * * *",
		Timezone:     "UTC",
		JobTimeout:   5 * time.Minute,
		HealthPort:   9091,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDurationRange(c.JobTimeout, minJobTimeout, maxJobTimeout); err != nil {
		errs = append(errs, fmt.Errorf("job timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, minPort, maxPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	return errors.Join(errs...)
}

// LoadConfig settles the worker configuration. base carries the schedule and
// timezone from the application config; SNAPSHOT_TIMEOUT and
// WORKER_HEALTH_PORT are read from the environment. Any invalid value falls
// back to DefaultConfig, is logged and counted, and never fails the load.
func LoadConfig(base WorkerConfig, logger *slog.Logger, metrics *WorkerMetrics) WorkerConfig {
	def := DefaultConfig()
	cfg := base
	fallback := false

	reject := func(field, warning string) {
		fallback = true
		metrics.RecordFallback(field)
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}

	if err := config.ValidateCronSchedule(cfg.CronSchedule); err != nil {
		reject("cron_schedule", fmt.Sprintf("%v, falling back to default %q", err, def.CronSchedule))
		cfg.CronSchedule = def.CronSchedule
	}
	if err := config.ValidateTimezone(cfg.Timezone); err != nil {
		reject("timezone", fmt.Sprintf("%v, falling back to default %q", err, def.Timezone))
		cfg.Timezone = def.Timezone
	}

	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	timeout := config.LoadEnvDuration("SNAPSHOT_TIMEOUT", cfg.JobTimeout, func(d time.Duration) error {
		return config.ValidateDurationRange(d, minJobTimeout, maxJobTimeout)
	})
	cfg.JobTimeout = timeout.Value
	if timeout.FallbackApplied {
		reject("job_timeout", timeout.Warning)
	}

	if cfg.HealthPort == 0 {
		cfg.HealthPort = def.HealthPort
	}
	port := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, minPort, maxPort)
	})
	cfg.HealthPort = port.Value
	if port.FallbackApplied {
		reject("health_port", port.Warning)
	}

	metrics.RecordLoad(fallback)
	return cfg
}
