package server

import "github.com/gofiber/fiber/v2"

// GetFeatures handles GET /api/features, the flags evaluated for the caller.
func (s *Server) GetFeatures(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(s.optionalUserID(c)))
}

// GetFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	})
}
