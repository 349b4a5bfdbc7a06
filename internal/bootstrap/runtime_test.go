package bootstrap

import (
	"context"
	"testing"

	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDevAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates profile and grants admin in development", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		cfg := testutil.TestConfig()
		cfg.Env = "development"
		id := uuid.New()
		cfg.DevAdminUserID = id.String()

		require.NoError(t, EnsureDevAdmin(ctx, cfg, db))
		require.NoError(t, EnsureDevAdmin(ctx, cfg, db))

		profiles := repository.NewProfileRepository(db)
		profile, err := profiles.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, devAdminNickname, profile.Nickname)

		isAdmin, err := profiles.IsAdmin(ctx, id)
		require.NoError(t, err)
		assert.True(t, isAdmin)
	})

	t.Run("keeps an existing nickname", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		id := testutil.CreateProfile(t, db, "already-here")
		cfg := testutil.TestConfig()
		cfg.Env = "development"
		cfg.DevAdminUserID = id.String()

		require.NoError(t, EnsureDevAdmin(ctx, cfg, db))

		profile, err := repository.NewProfileRepository(db).GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "already-here", profile.Nickname)
	})

	t.Run("no-op outside development", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		cfg := testutil.TestConfig()
		cfg.Env = "production"
		cfg.DevAdminUserID = uuid.NewString()

		require.NoError(t, EnsureDevAdmin(ctx, cfg, db))

		var n int64
		require.NoError(t, db.Model(&models.UserRole{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("no-op without id", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		cfg := testutil.TestConfig()
		cfg.Env = "development"
		require.NoError(t, EnsureDevAdmin(ctx, cfg, db))
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		cfg := testutil.TestConfig()
		cfg.Env = "development"
		cfg.DevAdminUserID = "root"
		assert.Error(t, EnsureDevAdmin(ctx, cfg, db))
	})

	t.Run("nil inputs", func(t *testing.T) {
		assert.NoError(t, EnsureDevAdmin(ctx, nil, nil))
	})
}
