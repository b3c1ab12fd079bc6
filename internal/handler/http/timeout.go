package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"recipe-box/internal/handler/http/respond"
)

// Timeout returns middleware that bounds how long a handler may run.
// The request context is cancelled at the deadline, which also aborts an
// in-flight remote recipe search. If the handler has not written anything by
// then, the client receives 504 Gateway Timeout.
//
// Only one goroutine (the handler or the timer) ever writes the response.
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			r = r.WithContext(ctx)

			tw := &timeoutResponseWriter{ResponseWriter: w}
			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case p := <-panicked:
				// re-raised here so Recover, which runs on this goroutine, sees it
				panic(p)
			case <-done:
			case <-ctx.Done():
				tw.mu.Lock()
				tw.timedOut = true
				if !tw.written {
					respond.Error(w, http.StatusGatewayTimeout, errRequestTimeout)
				}
				tw.mu.Unlock()
			}
		})
	}
}

var errRequestTimeout = errors.New("request timeout")

// timeoutResponseWriter drops writes that arrive after the deadline.
type timeoutResponseWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	written  bool
}

func (w *timeoutResponseWriter) WriteHeader(statusCode int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.timedOut && !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *timeoutResponseWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}
