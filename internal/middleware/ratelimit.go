package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CodeRateLimited is the error code returned with 429 responses.
const CodeRateLimited = "RATE_LIMITED"

var errNoLimiterStore = errors.New("rate limit store not configured")

// RateRule names a fixed-window budget for one kind of write.
type RateRule struct {
	Name   string
	Limit  int
	Window time.Duration
	// FailClosed rejects requests with 503 when the store is unreachable.
	FailClosed bool
}

// Write budgets for the engagement endpoints.
var (
	CreatePostRule    = RateRule{Name: "create_post", Limit: 5, Window: 5 * time.Minute}
	CreateCommentRule = RateRule{Name: "create_comment", Limit: 10, Window: time.Minute}
	ReportPostRule    = RateRule{Name: "report_post", Limit: 5, Window: 10 * time.Minute}
)

// RateLimiter counts requests per rule and caller in Redis.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter returns a limiter backed by rdb. Limits are only enforced
// outside the development and test environments.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: env != "development" && env != "test"}
}

// Allow increments the caller's counter for rule and reports whether it is
// still within budget, together with the time left in the current window.
func (l *RateLimiter) Allow(ctx context.Context, rule RateRule, caller string) (bool, time.Duration, error) {
	if !l.enabled {
		return true, 0, nil
	}
	if l.rdb == nil {
		return false, 0, errNoLimiterStore
	}

	key := "rl:" + rule.Name + ":" + caller
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, rule.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expire: %w", err)
		}
		return rule.Limit >= 1, rule.Window, nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = rule.Window
	}
	return count <= int64(rule.Limit), ttl, nil
}

// Handler enforces rule on the wrapped route. Authenticated callers are keyed by
// user id, everyone else by client IP.
func (l *RateLimiter) Handler(rule RateRule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uuid.UUID); ok && uid != uuid.Nil {
			caller = "user:" + uid.String()
		}

		ok, retryAfter, err := l.Allow(c.UserContext(), rule, caller)
		switch {
		case err != nil && rule.FailClosed:
			Logger.WarnContext(c.UserContext(), "rate limiter unavailable, rejecting",
				slog.String("rule", rule.Name),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Rate limiting unavailable",
				Code:  CodeRateLimited,
			})
		case err != nil:
			Logger.DebugContext(c.UserContext(), "rate limiter unavailable, allowing",
				slog.String("rule", rule.Name),
				slog.String("error", err.Error()),
			)
			return c.Next()
		case !ok:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests",
				Code:  CodeRateLimited,
			})
		}
		return c.Next()
	}
}
