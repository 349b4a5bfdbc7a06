// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var base atomic.Pointer[slog.Logger]

func init() {
	base.Store(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// UseLogger routes repository and service logs through l, usually the
// request-aware HTTP logger so records carry request and user ids.
func UseLogger(l *slog.Logger) {
	if l != nil {
		base.Store(l)
	}
}

// L returns the logger currently backing the package.
func L() *slog.Logger {
	return base.Load()
}

type correlationKey struct{}

// WithCorrelationID tags ctx with the id of the request that produced it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// ExtractCorrelationID returns the id stored by WithCorrelationID, or "".
func ExtractCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Toggles for the per-layer loggers. Errors and warnings are always logged.
var (
	RepoLoggingEnabled    atomic.Bool
	ServiceLoggingEnabled atomic.Bool
)

func init() {
	RepoLoggingEnabled.Store(true)
	ServiceLoggingEnabled.Store(true)
}

func emit(ctx context.Context, level slog.Level, msg string, scope []slog.Attr, attrs []slog.Attr) {
	all := make([]slog.Attr, 0, len(scope)+len(attrs)+1)
	all = append(all, scope...)
	if id := ExtractCorrelationID(ctx); id != "" {
		all = append(all, slog.String("correlation_id", id))
	}
	all = append(all, attrs...)
	L().LogAttrs(ctx, level, msg, all...)
}

// RepoLogger logs writes against a single table at debug level.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) write(ctx context.Context, op string, attrs []slog.Attr) {
	if !RepoLoggingEnabled.Load() {
		return
	}
	emit(ctx, slog.LevelDebug, "repository "+op,
		[]slog.Attr{slog.String("table", l.table), slog.String("operation", op)}, attrs)
}

func (l *RepoLogger) LogCreate(ctx context.Context, attrs ...slog.Attr) { l.write(ctx, "create", attrs) }
func (l *RepoLogger) LogUpdate(ctx context.Context, attrs ...slog.Attr) { l.write(ctx, "update", attrs) }
func (l *RepoLogger) LogDelete(ctx context.Context, attrs ...slog.Attr) { l.write(ctx, "delete", attrs) }

// LogError logs a failed repository operation. A nil err is ignored.
func (l *RepoLogger) LogError(ctx context.Context, err error, op string) {
	if err == nil {
		return
	}
	emit(ctx, slog.LevelError, "repository error",
		[]slog.Attr{slog.String("table", l.table), slog.String("operation", op)},
		[]slog.Attr{slog.String("error", err.Error())})
}

// ServiceLogger logs completed calls into one service.
type ServiceLogger struct {
	service string
}

// NewServiceLogger creates a ServiceLogger for the named service.
func NewServiceLogger(service string) *ServiceLogger {
	return &ServiceLogger{service: service}
}

// LogCall records a successful call to method.
func (l *ServiceLogger) LogCall(ctx context.Context, method string, attrs ...slog.Attr) {
	if !ServiceLoggingEnabled.Load() {
		return
	}
	emit(ctx, slog.LevelInfo, "service call",
		[]slog.Attr{slog.String("service", l.service), slog.String("method", method)}, attrs)
}

// LogWarn records a best-effort step that failed without failing the call.
func (l *ServiceLogger) LogWarn(ctx context.Context, method string, err error) {
	emit(ctx, slog.LevelWarn, "service warning",
		[]slog.Attr{slog.String("service", l.service), slog.String("method", method)},
		[]slog.Attr{slog.String("error", err.Error())})
}

// LogConsistencyAlarm records counter drift and bumps the alarm metric.
// Alarms are never returned to callers.
func (l *ServiceLogger) LogConsistencyAlarm(ctx context.Context, counter string, err error) {
	ConsistencyAlarms.WithLabelValues(counter).Inc()
	emit(ctx, slog.LevelError, "consistency alarm",
		[]slog.Attr{slog.String("service", l.service), slog.String("counter", counter)},
		[]slog.Attr{slog.String("error", err.Error())})
}
