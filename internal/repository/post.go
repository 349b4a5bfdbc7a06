package repository

import (
	"context"
	"log/slog"
	"sort"

	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Post, error)
	Lock(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, topic models.Topic, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecountReactions(ctx context.Context, id uuid.UUID) error
	RecountComments(ctx context.Context, id uuid.UUID) error
	CountByTopic(ctx context.Context) ([]models.TopicCount, error)
	Count(ctx context.Context) (int64, error)
}

type postRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, logger: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return err
	}
	r.logger.LogCreate(ctx, slog.Any("post_id", post.ID), slog.Any("topic", post.Topic))
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByIDs loads the posts that still exist among ids.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Post, error) {
	out := make(map[uuid.UUID]*models.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

// Lock reads the post and holds a row lock on it until the surrounding transaction ends.
// SQLite serializes write transactions on its own, so the locking clause is only emitted elsewhere.
func (r *postRepository) Lock(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var post models.Post
	if err := q.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts newest first, optionally restricted to one topic.
func (r *postRepository) List(ctx context.Context, topic models.Topic, limit, offset int) ([]*models.Post, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Post{})
	if topic != "" {
		q = q.Where("topic = ?", topic)
	}
	var posts []*models.Post
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if result.Error != nil {
		r.logger.LogError(ctx, result.Error, "delete")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.logger.LogDelete(ctx, slog.Any("post_id", id))
	return nil
}

// RecountReactions rewrites both reaction counters from the live reaction rows in a single statement.
func (r *postRepository) RecountReactions(ctx context.Context, id uuid.UUID) error {
	return r.recount(ctx, id, map[string]interface{}{
		"likes_count":    reactionCount(models.ReactionLike),
		"dislikes_count": reactionCount(models.ReactionDislike),
	})
}

// RecountComments rewrites comments_count from the live comment rows.
func (r *postRepository) RecountComments(ctx context.Context, id uuid.UUID) error {
	return r.recount(ctx, id, map[string]interface{}{
		"comments_count": gorm.Expr("(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)"),
	})
}

func reactionCount(kind models.ReactionKind) clause.Expr {
	return gorm.Expr(
		"(SELECT COUNT(*) FROM post_reactions WHERE post_reactions.post_id = posts.id AND post_reactions.kind = ?)",
		kind.String(),
	)
}

func (r *postRepository) recount(ctx context.Context, id uuid.UUID, counters map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(counters)
	if result.Error != nil {
		r.logger.LogError(ctx, result.Error, "recount")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.logger.LogUpdate(ctx, slog.Any("post_id", id), slog.Int("recount", len(counters)))
	return nil
}

// CountByTopic returns a count for every topic, zero-filled, largest first and then by name.
func (r *postRepository) CountByTopic(ctx context.Context) ([]models.TopicCount, error) {
	var rows []models.TopicCount
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Post{}).
		Select("topic, COUNT(*) AS count").
		Group("topic").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byTopic := make(map[models.Topic]int64, len(rows))
	for _, row := range rows {
		byTopic[row.Topic] = row.Count
	}
	out := make([]models.TopicCount, 0, len(models.AllTopics))
	for _, t := range models.AllTopics {
		out = append(out, models.TopicCount{Topic: t, Count: byTopic[t]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Count(&n).Error
	return n, err
}
