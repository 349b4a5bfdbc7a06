package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := observability.Tracer
	observability.Tracer = provider.Tracer("test")
	t.Cleanup(func() {
		observability.Tracer = previous
		_ = provider.Shutdown(t.Context())
	})
	return recorder
}

func TestTracingMiddleware(t *testing.T) {
	recorder := withRecorder(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/boom", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusServiceUnavailable) })
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/abc", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/boom", nil))
	require.NoError(t, err)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /api/posts/:id", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("murmur.resource_id", "abc"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("http.target", "/api/posts/abc"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", http.StatusOK))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracingMiddleware_AttributesSurviveLaterRequests(t *testing.T) {
	recorder := withRecorder(t)

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	ids := []string{"first-post-id", "2nd", "a-much-longer-third-post-identifier"}
	for _, id := range ids {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/"+id, nil))
		require.NoError(t, err)
	}

	spans := recorder.Ended()
	require.Len(t, spans, len(ids))
	for i, id := range ids {
		assert.Contains(t, spans[i].Attributes(), attribute.String("murmur.resource_id", id))
		assert.Contains(t, spans[i].Attributes(), attribute.String("http.target", "/api/posts/"+id))
	}
}
