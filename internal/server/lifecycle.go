package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"murmur/internal/middleware"
	"murmur/internal/notifications"
)

// Start runs background subscribers and serves HTTP until Shutdown is called.
// The app and the background context are built by the constructor, so
// Shutdown may run from another goroutine at any time.
func (s *Server) Start() error {
	if s.notifier != nil {
		if err := s.notifier.StartModerationSubscriber(s.background, notifications.LogModerationEvent); err != nil {
			middleware.Logger.Warn("moderation audit subscriber not started", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server listening", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops background work, drains HTTP, then closes the database and
// Redis. Every step runs; their errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopBackground()

	var errs []error
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		middleware.Logger.Error("shutdown finished with errors", slog.String("error", err.Error()))
	} else {
		middleware.Logger.Info("shutdown complete")
	}
	return err
}
