// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Token settings shared by handler tests.
const (
	TestJWTSecret   = "test-secret-that-is-long-enough-for-hs256"
	TestJWTIssuer   = "murmur-auth"
	TestJWTAudience = "murmur-client"
)

// NewTestDB opens a private in-memory SQLite database with every persistent model migrated.
// The pool is pinned to one connection, so code running inside a transaction must use the tx handle.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// TestConfig returns a configuration suitable for handler and bootstrap tests.
func TestConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            TestJWTSecret,
		JWTIssuer:            TestJWTIssuer,
		JWTAudience:          TestJWTAudience,
		AllowedOrigins:       "http://localhost:5173",
		TopicStatsTTLSeconds: 30,
	}
}

// SignToken issues an HS256 token for userID the way the identity provider does.
func SignToken(t testing.TB, userID uuid.UUID) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    TestJWTIssuer,
		Audience:  jwt.ClaimStrings{TestJWTAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	require.NoError(t, err)
	return signed
}

// CreateProfile stores a profile with nickname and returns its id.
func CreateProfile(t testing.TB, db *gorm.DB, nickname string) uuid.UUID {
	t.Helper()
	p := models.Profile{ID: uuid.New(), Nickname: nickname}
	require.NoError(t, db.WithContext(context.Background()).Create(&p).Error)
	return p.ID
}

// CreateAdmin stores a profile holding the administrator role.
func CreateAdmin(t testing.TB, db *gorm.DB, nickname string) uuid.UUID {
	t.Helper()
	id := CreateProfile(t, db, nickname)
	require.NoError(t, db.Create(&models.UserRole{UserID: id, Role: models.RoleAdmin}).Error)
	return id
}

// CreatePost stores a post directly, bypassing the services.
func CreatePost(t testing.TB, db *gorm.DB, authorID uuid.UUID, topic models.Topic, anonymous bool) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: authorID, Content: "post by " + authorID.String()[:8], Topic: topic, IsAnonymous: anonymous}
	require.NoError(t, db.Create(p).Error)
	return p
}
