package server

import (
	"errors"

	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?topic=&limit=&offset=
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	posts, err := s.postService.ListFeed(c.UserContext(), service.ListFeedInput{
		ViewerID: s.optionalUserID(c),
		Topic:    c.Query("topic"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content     string `json:"content"`
		Topic       string `json:"topic"`
		IsAnonymous bool   `json:"is_anonymous"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:    currentUserID(c),
		Content:     req.Content,
		Topic:       req.Topic,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id for the author or an administrator.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// SetReaction handles PUT /api/posts/:id/reaction with body {"kind": "like" | "dislike" | null}.
// Sending the current kind again clears it.
func (s *Server) SetReaction(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Kind models.ReactionKind `json:"kind"`
	}
	if err := c.BodyParser(&req); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return respondError(c, appErr)
		}
		return invalidBody(c)
	}

	result, err := s.reactionService.SetReaction(c.UserContext(), id, currentUserID(c), req.Kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetTopicStats handles GET /api/topics/stats
func (s *Server) GetTopicStats(c *fiber.Ctx) error {
	stats, err := s.postService.TopicStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
