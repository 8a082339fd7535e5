package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"silkmaker-backend/internal/middleware"
)

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	collector := NewCollector("silkmaker_test")

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(collector))
	r.Get("/api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	count := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET", "/api/projects/{id}", "404"))
	assert.Equal(t, float64(1), count)
}

func TestCollectorHandlerExposesMetrics(t *testing.T) {
	collector := NewCollector("silkmaker_test")
	collector.RecordEvent("node.created")
	collector.RecordExport(true)
	collector.RecordExport(false)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.StoryEvents.WithLabelValues("node.created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Exports.WithLabelValues("failure")))

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "silkmaker_test_story_events_total"))
}

func TestTwoCollectorsDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector("silkmaker_test")
		NewCollector("silkmaker_test")
	})
}

func TestDisabledTracingIsNoop(t *testing.T) {
	tp, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracingMiddlewarePassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(TracingMiddleware("silkmaker-test"))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestTracingMiddlewareRecordsRequestID(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(TracingMiddleware("silkmaker-test"))
	r.Get("/api/projects/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/7", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	span := ended[0]
	assert.Equal(t, "GET /api/projects/{projectId}", span.Name())

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "abc-123", attrs["http.request_id"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.status_code"].AsInt64())
}

func TestDefaultSampleRate(t *testing.T) {
	tests := map[string]float64{
		"production":  0.05,
		"staging":     0.25,
		"development": 1.0,
		"":            1.0,
	}
	for env, want := range tests {
		assert.Equal(t, want, defaultSampleRate(env), env)
	}
}
