package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"recipe-box/internal/handler/http/requestid"
	"recipe-box/internal/handler/http/respond"
	"recipe-box/internal/handler/http/responsewriter"
	"recipe-box/internal/observability/logging"
)

// Request input limits enforced by InputValidation.
const (
	maxPathLength  = 2048
	maxQueryLength = 512
	maxBodyBytes   = 1 << 20
)

// Logging writes one "request completed" line per request. Loggers from
// logging.New add the trace id from the request context. Handlers reach a
// logger tagged with the request id through logging.FromContext.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			r = r.WithContext(logging.WithLogger(ctx, logging.WithRequestID(ctx, logger)))

			rec := responsewriter.New(w)
			next.ServeHTTP(rec, r)

			logger.LogAttrs(ctx, levelFor(rec.Status()), "request completed",
				slog.String("request_id", requestid.FromContext(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.Int("status", rec.Status()),
				slog.Int("bytes", rec.Size()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// levelFor logs server errors at Error so they stand out from routine traffic.
func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Recover turns a handler panic into a 500 and logs the stack.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("panic recovered",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", v),
					slog.String("stack", string(debug.Stack())))
				respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitRequestBody caps request bodies at maxBytes.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// InputValidation rejects overlong paths and search terms before routing,
// and caps bodies at 1 MiB. TheMealDB would refuse such a search anyway.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := LimitRequestBody(maxBodyBytes)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case len(r.URL.Path) > maxPathLength:
				respond.JSON(w, http.StatusRequestURITooLong, map[string]string{"error": "URI too long"})
			case len(r.URL.Query().Get("q")) > maxQueryLength:
				respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "search query too long"})
			default:
				limited.ServeHTTP(w, r)
			}
		})
	}
}
