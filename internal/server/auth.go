package server

import (
	"errors"

	"murmur/internal/middleware"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuthRequired returns the authentication middleware. On success the caller's id is
// stored in locals under "userID" and on the request context for logging.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := s.verifier.Verify(c.UserContext(), middleware.BearerToken(c))
		if err != nil {
			msg := "Invalid or expired token"
			switch {
			case errors.Is(err, middleware.ErrMissingToken):
				msg = "Authorization required"
			case errors.Is(err, middleware.ErrRevokedToken):
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		c.Locals("userID", userID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uuid.UUID)

		admin, err := s.repos.Profiles.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable, models.NewPersistenceError(err))
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// optionalUserID returns the caller's id when a valid bearer token is present, else uuid.Nil.
// Public routes never fail because of a bad token; they serve the anonymous projection instead.
func (s *Server) optionalUserID(c *fiber.Ctx) uuid.UUID {
	token := middleware.BearerToken(c)
	if token == "" {
		return uuid.Nil
	}
	userID, err := s.verifier.Verify(c.UserContext(), token)
	if err != nil {
		return uuid.Nil
	}
	return userID
}

func currentUserID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals("userID").(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
