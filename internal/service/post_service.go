package service

import (
	"context"
	"log/slog"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	uow       repository.UnitOfWork
	repos     *repository.Repositories
	projector *Projector
	isAdmin   AdminChecker
	logger    *observability.ServiceLogger
}

type CreatePostInput struct {
	AuthorID    uuid.UUID
	Content     string
	Topic       string
	IsAnonymous bool
}

type ListFeedInput struct {
	ViewerID uuid.UUID
	Topic    string
	Limit    int
	Offset   int
}

func NewPostService(
	uow repository.UnitOfWork,
	repos *repository.Repositories,
	isAdmin AdminChecker,
) *PostService {
	return &PostService{
		uow:       uow,
		repos:     repos,
		projector: NewProjector(repos.Reactions, repos.Profiles),
		isAdmin:   isAdmin,
		logger:    observability.NewServiceLogger("PostService"),
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (view *models.PostView, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { span.End(err) }()

	if err = requireActor(in.AuthorID); err != nil {
		return nil, err
	}
	content, err := cleanText(in.Content, "Content", maxPostLen)
	if err != nil {
		return nil, err
	}
	topic, err := models.ParseTopic(in.Topic)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:    in.AuthorID,
		Content:     content,
		Topic:       topic,
		IsAnonymous: in.IsAnonymous,
	}
	if err = s.repos.Posts.Create(ctx, post); err != nil {
		err = models.NewPersistenceError(err)
		return nil, err
	}
	cache.InvalidateTopicStats(ctx)

	s.logger.LogCall(ctx, "CreatePost", slog.Any("post_id", post.ID), slog.Any("topic", topic))
	return s.projector.ProjectPost(ctx, post, in.AuthorID)
}

// ListFeed returns a newest-first page of projections, optionally for one topic.
func (s *PostService) ListFeed(ctx context.Context, in ListFeedInput) (views []*models.PostView, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "PostService", "ListFeed",
		attribute.String("feed.topic", in.Topic),
	)
	defer func() { span.End(err) }()

	var topic models.Topic
	if in.Topic != "" {
		if topic, err = models.ParseTopic(in.Topic); err != nil {
			return nil, err
		}
	}
	limit, offset := clampPage(in.Limit, in.Offset)

	posts, err := s.repos.Posts.List(ctx, topic, limit, offset)
	if err != nil {
		err = models.NewPersistenceError(err)
		return nil, err
	}
	return s.projector.ProjectPosts(ctx, posts, in.ViewerID)
}

// GetPost returns the fresh projection of one post for viewerID, which may be uuid.Nil.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*models.PostView, error) {
	post, err := s.repos.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, translate(err, "Post", postID)
	}
	return s.projector.ProjectPost(ctx, post, viewerID)
}

// ProjectPost exposes the projection for callers that already hold the post.
func (s *PostService) ProjectPost(ctx context.Context, post *models.Post, viewerID uuid.UUID) (*models.PostView, error) {
	return s.projector.ProjectPost(ctx, post, viewerID)
}

// DeletePost removes a post on behalf of its author or an administrator, with the same
// cascade as moderator removal.
func (s *PostService) DeletePost(ctx context.Context, postID, requesterID uuid.UUID) (err error) {
	span, ctx := observability.StartServiceSpan(ctx, "PostService", "DeletePost",
		attribute.String("post.id", postID.String()),
	)
	defer func() { span.End(err) }()

	if err = requireActor(requesterID); err != nil {
		return err
	}
	post, err := s.repos.Posts.GetByID(ctx, postID)
	if err != nil {
		err = translate(err, "Post", postID)
		return err
	}
	if post.AuthorID != requesterID {
		if err = requireAdmin(ctx, s.isAdmin, requesterID, "delete other users' posts"); err != nil {
			if models.IsCode(err, models.CodeForbidden) {
				err = models.NewForbiddenError("You can only delete your own posts")
			}
			return err
		}
	}

	if err = removePostCascade(ctx, s.uow, postID); err != nil {
		err = translate(err, "Post", postID)
		return err
	}
	cache.InvalidateTopicStats(ctx)

	s.logger.LogCall(ctx, "DeletePost", slog.Any("post_id", postID))
	return nil
}

// TopicStats returns per-topic post counts with totals. The aggregate is cached briefly.
func (s *PostService) TopicStats(ctx context.Context) (*models.TopicStats, error) {
	var stats models.TopicStats
	err := cache.Aside(ctx, cache.TopicStatsKey, &stats, cache.TopicStatsTTL, func() error {
		counts, err := s.repos.Posts.CountByTopic(ctx)
		if err != nil {
			return err
		}
		users, err := s.repos.Profiles.Count(ctx)
		if err != nil {
			return err
		}
		var total int64
		for _, c := range counts {
			total += c.Count
		}
		stats = models.TopicStats{Topics: counts, TotalPosts: total, TotalUsers: users}
		return nil
	})
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	return &stats, nil
}
