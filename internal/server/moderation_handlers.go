package server

import (
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ReportPost handles POST /api/posts/:id/reports
func (s *Server) ReportPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	report, err := s.moderationService.SubmitReport(c.UserContext(), postID, currentUserID(c), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetAdminReports handles GET /api/admin/reports?status=pending|resolved
func (s *Server) GetAdminReports(c *fiber.Ctx) error {
	status, err := models.ParseReportStatus(c.Query("status", string(models.ReportStatusPending)))
	if err != nil {
		return respondError(c, err)
	}
	page := parsePagination(c, 20)

	reports, err := s.moderationService.ListReports(c.UserContext(), currentUserID(c), status, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	report, err := s.moderationService.ResolveReport(c.UserContext(), reportID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// RemovePost handles DELETE /api/admin/posts/:id
func (s *Server) RemovePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.moderationService.RemoveReportedPost(c.UserContext(), postID, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post removed"})
}
