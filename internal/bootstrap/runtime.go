// Package bootstrap wires the process-wide runtime: database, Redis and development defaults.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const devAdminNickname = "murmur_admin"

// InitRuntime connects to the database and Redis and applies development defaults.
// The returned Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx := context.Background()
	rdb := cache.InitRedis(ctx, cfg.RedisURL)
	cache.SetTopicStatsTTL(cfg.TopicStatsTTLSeconds)

	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return db, rdb, nil
}

// EnsureDevAdmin grants the admin role to DEV_ADMIN_USER_ID in development.
// It is a no-op in every other environment or when the id is unset.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || cfg.DevAdminUserID == "" {
		return nil
	}

	id, err := uuid.Parse(cfg.DevAdminUserID)
	if err != nil {
		return fmt.Errorf("DEV_ADMIN_USER_ID: %w", err)
	}

	profiles := repository.NewProfileRepository(db)
	existing, err := profiles.GetByID(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing == nil {
		if err := profiles.Upsert(ctx, &models.Profile{ID: id, Nickname: devAdminNickname}); err != nil {
			return err
		}
	}
	if err := profiles.GrantRole(ctx, id, models.RoleAdmin); err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured", slog.String("user_id", id.String()))
	return nil
}
