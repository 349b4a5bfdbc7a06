package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// QueryLogger sends GORM output to slog. Record-not-found is never logged;
// services translate it into NotFound.
type QueryLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewQueryLogger returns a GORM logger writing to l at level.
func NewQueryLogger(l *slog.Logger, level logger.LogLevel) *QueryLogger {
	return &QueryLogger{log: l, level: level, slow: slowQueryThreshold}
}

func (q *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *QueryLogger) Info(ctx context.Context, msg string, args ...any) {
	q.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (q *QueryLogger) Warn(ctx context.Context, msg string, args ...any) {
	q.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (q *QueryLogger) Error(ctx context.Context, msg string, args ...any) {
	q.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (q *QueryLogger) printf(ctx context.Context, at logger.LogLevel, lvl slog.Level, msg string, args []any) {
	if q.level >= at {
		q.log.Log(ctx, lvl, fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed queries at error, slow ones at warn and the rest only at
// info level.
func (q *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= logger.Error:
		lvl, msg = slog.LevelError, "query failed"
	case q.slow > 0 && elapsed > q.slow && q.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow query"
	case q.level >= logger.Info:
		lvl, msg = slog.LevelInfo, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if lvl == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	q.log.LogAttrs(ctx, lvl, msg, attrs...)
}
