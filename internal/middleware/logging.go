package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Logger is the process-wide structured logger. Records logged with a
// request context carry request_id, user_id and trace_id.
var Logger *slog.Logger

type logKey int

const (
	requestIDKey logKey = iota
	userIDKey
	traceIDKey
)

func init() {
	Logger = NewLogger(os.Stdout, os.Getenv("APP_ENV"))
	observability.UseLogger(Logger)
}

// NewLogger returns a request-aware logger writing JSON in production and
// text everywhere else.
func NewLogger(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" || env == "prod" {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(requestAttrs{h})
}

// requestAttrs copies request-scoped ids from the context onto each record.
type requestAttrs struct {
	slog.Handler
}

func (h requestAttrs) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", v))
	}
	if v, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		r.AddAttrs(slog.String("user_id", v.String()))
	}
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", v))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestAttrs{h.Handler.WithAttrs(attrs)}
}

func (h requestAttrs) WithGroup(name string) slog.Handler {
	return requestAttrs{h.Handler.WithGroup(name)}
}

// WithUserID stores the authenticated user on ctx for downstream logging.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ContextMiddleware moves the request id and trace id from Fiber locals into
// the user context so service and repository logs can report them.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, _ := c.Locals("requestid").(string); rid != "" {
			ctx = observability.WithCorrelationID(context.WithValue(ctx, requestIDKey, rid), rid)
		}
		if tid, _ := c.Locals("traceID").(string); tid != "" {
			ctx = context.WithValue(ctx, traceIDKey, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger logs one record per request. Server errors log at error
// level and client errors at warn.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusInternalServerError {
				status = fiber.StatusInternalServerError
			}
		}

		level := slog.LevelInfo
		switch {
		case status >= fiber.StatusInternalServerError:
			level = slog.LevelError
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			attrs = append(attrs, slog.String("user_agent", ua))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		Logger.LogAttrs(c.UserContext(), level, "request", attrs...)
		return err
	}
}
