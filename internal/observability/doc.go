// Package observability holds the logging, metrics and tracing packages
// shared by the API server, the snapshot worker and the recipes CLI.
//
// logging builds slog loggers that stamp records with the active trace,
// metrics registers the Prometheus collectors on the default registry, and
// tracing installs the OpenTelemetry provider and HTTP middleware.
package observability
