// Package logging builds the slog loggers used by the API server, the
// snapshot worker and the recipes CLI, and carries a request-scoped logger
// through context.
//
//	logger := logging.New(os.Stdout, "json", cfg.LogLevel)
//	slog.SetDefault(logger)
//
//	// inside a handler
//	logging.FromContext(r.Context()).InfoContext(r.Context(), "recipe added", slog.String("id", id))
package logging
