// Package service implements the engagement and moderation core: reactions, comments,
// reports and the post projections every caller renders from.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Text limits, counted in characters after trimming.
const (
	maxPostLen    = 5000
	maxCommentLen = 2000
	maxReasonLen  = 500
)

// AdminChecker reports whether a user holds the administrator capability.
type AdminChecker func(ctx context.Context, userID uuid.UUID) (bool, error)

// translate maps gateway errors onto the core error kinds. AppErrors pass through unchanged.
func translate(err error, resource string, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewPersistenceError(err)
}

func requireActor(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

func requireAdmin(ctx context.Context, isAdmin AdminChecker, userID uuid.UUID, action string) error {
	if err := requireActor(userID); err != nil {
		return err
	}
	if isAdmin == nil {
		return models.NewForbiddenError("Only administrators can " + action)
	}
	admin, err := isAdmin(ctx, userID)
	if err != nil {
		return translate(err, "User", userID)
	}
	if !admin {
		return models.NewForbiddenError("Only administrators can " + action)
	}
	return nil
}

// cleanText trims s and enforces that it is non-empty and at most max characters.
func cleanText(s, field string, max int) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", models.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(trimmed) > max {
		return "", models.NewValidationError(fmt.Sprintf("%s too long (max %d characters)", field, max))
	}
	return trimmed, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// removePostCascade deletes a post together with its reactions and comments in one transaction.
// Reports stay behind for audit.
func removePostCascade(ctx context.Context, uow repository.UnitOfWork, postID uuid.UUID) error {
	return uow.Do(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Posts.Lock(ctx, postID); err != nil {
			return err
		}
		if err := repos.Reactions.DeleteByPost(ctx, postID); err != nil {
			return err
		}
		if err := repos.Comments.DeleteByPost(ctx, postID); err != nil {
			return err
		}
		return repos.Posts.Delete(ctx, postID)
	})
}
