// Package middleware provides authentication, logging, metrics, tracing and rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"murmur/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token verification failures.
var (
	ErrMissingToken = errors.New("authorization required")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// RevokedTokenKey is the Redis key marking a token id as revoked.
func RevokedTokenKey(jti string) string {
	return "blacklist:" + jti
}

// TokenVerifier validates bearer tokens issued by the external identity provider.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
	rdb      *redis.Client
}

// NewTokenVerifier builds a verifier from configuration. rdb may be nil, which disables revocation checks.
func NewTokenVerifier(cfg *config.Config, rdb *redis.Client) *TokenVerifier {
	return &TokenVerifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		rdb:      rdb,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Verify parses tokenString and returns the user id carried in its subject claim.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	if claims.ID != "" && v.rdb != nil {
		revoked, err := v.rdb.Exists(ctx, RevokedTokenKey(claims.ID)).Result()
		if err == nil && revoked > 0 {
			return uuid.Nil, ErrRevokedToken
		}
	}

	return userID, nil
}
