package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"murmur/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiterRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_DisabledEnvironments(t *testing.T) {
	for _, env := range []string{"development", "test"} {
		t.Run(env, func(t *testing.T) {
			ok, _, err := NewRateLimiter(nil, env).Allow(context.Background(), CreateCommentRule, "user:1")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}

	ok, _, err := NewRateLimiter(nil, "production").Allow(context.Background(), CreateCommentRule, "user:1")
	assert.ErrorIs(t, err, errNoLimiterStore)
	assert.False(t, ok)
}

func TestRateLimiter_Window(t *testing.T) {
	mr, rdb := newLimiterRedis(t)
	l := NewRateLimiter(rdb, "production")
	rule := RateRule{Name: "reports", Limit: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, rule, "user:a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, retry, err := l.Allow(ctx, rule, "user:a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Positive(t, retry)
	assert.LessOrEqual(t, retry, time.Minute)

	ok, _, err = l.Allow(ctx, rule, "user:b")
	require.NoError(t, err)
	assert.True(t, ok, "separate callers have separate buckets")

	mr.FastForward(2 * time.Minute)
	ok, _, err = l.Allow(ctx, rule, "user:a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_Handler(t *testing.T) {
	_, rdb := newLimiterRedis(t)
	l := NewRateLimiter(rdb, "production")
	user := uuid.New()

	app := fiber.New()
	app.Post("/comments", func(c *fiber.Ctx) error {
		c.Locals("userID", user)
		return c.Next()
	}, l.Handler(RateRule{Name: "create_comment", Limit: 1, Window: time.Minute}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/comments", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/comments", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, CodeRateLimited, body.Code)

	exists, err := rdb.Exists(context.Background(), "rl:create_comment:user:"+user.String()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}

func TestRateLimiter_StoreDown(t *testing.T) {
	l := NewRateLimiter(nil, "production")

	app := fiber.New()
	app.Post("/reports", l.Handler(RateRule{Name: "report", Limit: 5, Window: time.Minute, FailClosed: true}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Post("/open", l.Handler(RateRule{Name: "open", Limit: 5, Window: time.Minute}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}
