package repository

import (
	"context"
	"log/slog"

	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository stores at most one like or dislike per (post, user).
type ReactionRepository interface {
	Find(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error)
	Upsert(ctx context.Context, reaction *models.Reaction) error
	Delete(ctx context.Context, postID, userID uuid.UUID) error
	DeleteByPost(ctx context.Context, postID uuid.UUID) error
	KindsForUser(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]models.ReactionKind, error)
	CountByKind(ctx context.Context, postID uuid.UUID) (likes, dislikes int64, err error)
}

type reactionRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, logger: observability.NewRepoLogger("post_reactions")}
}

func (r *reactionRepository) Find(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&reaction).Error; err != nil {
		return nil, err
	}
	return &reaction, nil
}

// Upsert inserts the reaction or switches the kind of the existing one.
func (r *reactionRepository) Upsert(ctx context.Context, reaction *models.Reaction) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}).Create(reaction).Error
	if err != nil {
		r.logger.LogError(ctx, err, "upsert")
		return err
	}
	r.logger.LogUpdate(ctx,
		slog.Any("post_id", reaction.PostID),
		slog.Any("user_id", reaction.UserID),
		slog.Any("kind", reaction.Kind.String()),
	)
	return nil
}

func (r *reactionRepository) Delete(ctx context.Context, postID, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Reaction{}).Error; err != nil {
		r.logger.LogError(ctx, err, "delete")
		return err
	}
	r.logger.LogDelete(ctx, slog.Any("post_id", postID), slog.Any("user_id", userID))
	return nil
}

func (r *reactionRepository) DeleteByPost(ctx context.Context, postID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Reaction{})
	if result.Error != nil {
		r.logger.LogError(ctx, result.Error, "delete_by_post")
		return result.Error
	}
	r.logger.LogDelete(ctx, slog.Any("post_id", postID), slog.Int64("rows", result.RowsAffected))
	return nil
}

// KindsForUser returns the viewer's reaction on each of postIDs. Posts without one are absent from the map.
func (r *reactionRepository) KindsForUser(
	ctx context.Context,
	userID uuid.UUID,
	postIDs []uuid.UUID,
) (map[uuid.UUID]models.ReactionKind, error) {
	out := make(map[uuid.UUID]models.ReactionKind, len(postIDs))
	if userID == uuid.Nil || len(postIDs) == 0 {
		return out, nil
	}
	var rows []models.Reaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row.Kind
	}
	return out, nil
}

func (r *reactionRepository) CountByKind(ctx context.Context, postID uuid.UUID) (likes, dislikes int64, err error) {
	type kindCount struct {
		Kind  string
		Count int64
	}
	var rows []kindCount
	if err = r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Select("kind, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("kind").
		Scan(&rows).Error; err != nil {
		return 0, 0, err
	}
	for _, row := range rows {
		switch row.Kind {
		case models.ReactionLike.String():
			likes = row.Count
		case models.ReactionDislike.String():
			dislikes = row.Count
		}
	}
	return likes, dislikes, nil
}
