package middleware

import (
	"strings"

	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// untracedPrefixes are probe and scrape endpoints that would only add noise.
var untracedPrefixes = []string{"/health/", "/metrics"}

// TracingMiddleware opens a server span per API request, continuing any upstream trace.
// Once routing has run the span is renamed to the matched route pattern; the :id value
// is kept as an attribute.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, prefix := range untracedPrefixes {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		// Fiber reuses request buffers; span data outlives the request, so copy.
		method, path := utils.CopyString(c.Method()), utils.CopyString(c.Path())
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := observability.Tracer.Start(ctx, method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", method),
				attribute.String("http.target", path),
				attribute.String("http.client_ip", utils.CopyString(c.IP())),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok && requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route(); route != nil && route.Path != "" {
			span.SetName(method + " " + route.Path)
			span.SetAttributes(attribute.String("http.route", route.Path))
		}
		if id := c.Params("id"); id != "" {
			span.SetAttributes(attribute.String("murmur.resource_id", utils.CopyString(id)))
		}
		if userID := c.Locals("userID"); userID != nil {
			if s, ok := userID.(interface{ String() string }); ok {
				span.SetAttributes(attribute.String("user.id", s.String()))
			}
		}

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, "server error")
		}
		return err
	}
}
