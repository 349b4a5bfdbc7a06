package server

import (
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	thread, err := s.commentService.ListComments(c.UserContext(), postID, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Content     string `json:"content"`
		IsAnonymous bool   `json:"is_anonymous"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	thread, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:      postID,
		UserID:      currentUserID(c),
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(thread)
}

// DeleteComment handles DELETE /api/comments/:id and returns the remaining thread.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	thread, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		CommentID:   commentID,
		RequesterID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}
