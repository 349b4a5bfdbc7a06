// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/observability"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// errorCounter feeds failed commands into the redis error metric. A cache
// miss (redis.Nil) is not a failure.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(op).Inc()
	}
}

// Dial parses addr, either host:port or a redis:// URL, and pings the server.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	if !strings.Contains(addr, "://") {
		addr = "redis://" + addr
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := redis.NewClient(opts)
	c.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

// InitRedis dials addr and installs the result as the process-wide client.
// Redis is optional: on failure the client stays nil and callers run uncached.
func InitRedis(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		middleware.Logger.Info("REDIS_URL not set, running without cache")
		client = nil
		return nil
	}
	c, err := Dial(ctx, addr)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, running without cache", slog.String("error", err.Error()))
		client = nil
		return nil
	}
	middleware.Logger.Info("redis connected")
	client = c
	return c
}

// GetClient returns the process-wide client, or nil when Redis is off.
func GetClient() *redis.Client {
	return client
}

// SetClient installs c as the process-wide client.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}
