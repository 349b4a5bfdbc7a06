package repository

import (
	"context"
	"log/slog"

	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPost(ctx context.Context, postID uuid.UUID) error
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)
}

type commentRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, logger: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return err
	}
	r.logger.LogCreate(ctx, slog.Any("comment_id", comment.ID), slog.Any("post_id", comment.PostID))
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns the thread oldest first; id breaks timestamp ties.
func (r *commentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if result.Error != nil {
		r.logger.LogError(ctx, result.Error, "delete")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.logger.LogDelete(ctx, slog.Any("comment_id", id))
	return nil
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{})
	if result.Error != nil {
		r.logger.LogError(ctx, result.Error, "delete_by_post")
		return result.Error
	}
	r.logger.LogDelete(ctx, slog.Any("post_id", postID), slog.Int64("rows", result.RowsAffected))
	return nil
}

func (r *commentRepository) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}
