package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	checkHealthy   = "healthy"
	checkUnhealthy = "unhealthy"
	checkDisabled  = "disabled"

	readinessTimeout = 5 * time.Second
)

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// ReadinessCheck handles GET /health/ready. The database is required. Redis
// is optional and reports "disabled" when no client is configured, but a
// configured Redis that does not answer makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	dbStatus, redisStatus := checkUnhealthy, checkDisabled
	var g errgroup.Group
	g.Go(func() error {
		if sqlDB, err := s.db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
			dbStatus = checkHealthy
		}
		return nil
	})
	if s.redis != nil {
		g.Go(func() error {
			redisStatus = checkHealthy
			if s.redis.Ping(ctx).Err() != nil {
				redisStatus = checkUnhealthy
			}
			return nil
		})
	}
	_ = g.Wait()

	code, overall := fiber.StatusOK, checkHealthy
	if dbStatus == checkUnhealthy || redisStatus == checkUnhealthy {
		code, overall = fiber.StatusServiceUnavailable, checkUnhealthy
	}
	return c.Status(code).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{"database": dbStatus, "redis": redisStatus},
		"time":   time.Now(),
	})
}
