package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs a synchronous in-memory provider for the test.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func serve(t *testing.T, status int, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})).ServeHTTP(rec, req)
	return rec
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestMiddleware_NamesSpanByRoute(t *testing.T) {
	exporter := recordSpans(t)

	rec := serve(t, http.StatusOK, httptest.NewRequest(http.MethodGet, "/api/recipes/local-1700000000000", nil))

	spans := exporter.GetSpans().Snapshots()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/recipes/:id", span.Name())

	a := attrs(span)
	assert.Equal(t, "GET", a["http.request.method"].AsString())
	assert.Equal(t, "/api/recipes/:id", a["http.route"].AsString())
	assert.Equal(t, "/api/recipes/local-1700000000000", a["url.path"].AsString())
	assert.Equal(t, int64(200), a["http.response.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, span.Status().Code)

	assert.Equal(t, span.SpanContext().TraceID().String(), rec.Header().Get(TraceIDHeader))
}

func TestMiddleware_ContinuesInboundTrace(t *testing.T) {
	exporter := recordSpans(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?q=curry", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := serve(t, http.StatusOK, req)

	spans := exporter.GetSpans().Snapshots()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec.Header().Get(TraceIDHeader))
}

func TestMiddleware_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   codes.Code
	}{
		{http.StatusCreated, codes.Unset},
		{http.StatusNotFound, codes.Unset},
		{http.StatusTooManyRequests, codes.Unset},
		{http.StatusInternalServerError, codes.Error},
		{http.StatusBadGateway, codes.Error},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			exporter := recordSpans(t)
			serve(t, tt.status, httptest.NewRequest(http.MethodPost, "/recipes", nil))

			spans := exporter.GetSpans().Snapshots()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.want, spans[0].Status().Code)
			assert.Equal(t, int64(tt.status), attrs(spans[0])["http.response.status_code"].AsInt64())
		})
	}
}

func TestRecordError(t *testing.T) {
	exporter := recordSpans(t)

	_, span := StartSpan(context.Background(), "recipe.Add", attribute.String("recipe.id", "local-1"))
	RecordError(span, nil)
	RecordError(span, errors.New("store write failed"))
	span.End()

	spans := exporter.GetSpans().Snapshots()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "recipe.Add", got.Name())
	assert.Equal(t, "local-1", attrs(got)["recipe.id"].AsString())
	assert.Len(t, got.Events(), 1)
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "store write failed", got.Status().Description)
}
