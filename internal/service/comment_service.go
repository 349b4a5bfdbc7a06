package service

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type CommentService struct {
	uow       repository.UnitOfWork
	repos     *repository.Repositories
	projector *Projector
	isAdmin   AdminChecker
	logger    *observability.ServiceLogger
}

type AddCommentInput struct {
	PostID      uuid.UUID
	UserID      uuid.UUID
	Content     string
	IsAnonymous bool
}

type DeleteCommentInput struct {
	CommentID   uuid.UUID
	RequesterID uuid.UUID
}

func NewCommentService(
	uow repository.UnitOfWork,
	repos *repository.Repositories,
	isAdmin AdminChecker,
) *CommentService {
	return &CommentService{
		uow:       uow,
		repos:     repos,
		projector: NewProjector(repos.Reactions, repos.Profiles),
		isAdmin:   isAdmin,
		logger:    observability.NewServiceLogger("CommentService"),
	}
}

// AddComment appends a comment and returns the whole thread, oldest first.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (thread *models.CommentThread, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "CommentService", "AddComment",
		attribute.String("post.id", in.PostID.String()),
	)
	defer func() { span.End(err) }()

	if err = requireActor(in.UserID); err != nil {
		return nil, err
	}
	content, err := cleanText(in.Content, "Content", maxCommentLen)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:      in.PostID,
		AuthorID:    in.UserID,
		Content:     content,
		IsAnonymous: in.IsAnonymous,
	}
	txErr := s.uow.Do(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Posts.Lock(ctx, in.PostID); err != nil {
			return err
		}
		if err := repos.Comments.Create(ctx, comment); err != nil {
			return err
		}
		return repos.Posts.RecountComments(ctx, in.PostID)
	})
	if txErr != nil {
		err = translate(txErr, "Post", in.PostID)
		return nil, err
	}

	observability.CommentsTotal.WithLabelValues("added").Inc()
	s.logger.LogCall(ctx, "AddComment",
		slog.Any("post_id", in.PostID),
		slog.Any("comment_id", comment.ID),
	)
	return s.ListComments(ctx, in.PostID, in.UserID)
}

// DeleteComment removes a comment on behalf of its author or an administrator.
// Counter drift discovered on the way is logged as a consistency alarm and repaired by the recount.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (thread *models.CommentThread, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "CommentService", "DeleteComment",
		attribute.String("comment.id", in.CommentID.String()),
	)
	defer func() { span.End(err) }()

	if err = requireActor(in.RequesterID); err != nil {
		return nil, err
	}

	comment, err := s.repos.Comments.GetByID(ctx, in.CommentID)
	if err != nil {
		err = translate(err, "Comment", in.CommentID)
		return nil, err
	}
	if comment.AuthorID != in.RequesterID {
		if err = requireAdmin(ctx, s.isAdmin, in.RequesterID, "delete other users' comments"); err != nil {
			if models.IsCode(err, models.CodeForbidden) {
				err = models.NewForbiddenError("You can only delete your own comments")
			}
			return nil, err
		}
	}

	var alarm *models.AppError
	txErr := s.uow.Do(ctx, func(repos *repository.Repositories) error {
		post, err := repos.Posts.Lock(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if err := repos.Comments.Delete(ctx, comment.ID); err != nil {
			return err
		}
		if err := repos.Posts.RecountComments(ctx, comment.PostID); err != nil {
			return err
		}
		after, err := repos.Posts.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		alarm = commentDrift(post.ID, post.CommentsCount, after.CommentsCount)
		return nil
	})
	if txErr != nil {
		err = translate(txErr, "Comment", in.CommentID)
		return nil, err
	}
	if alarm != nil {
		s.logger.LogConsistencyAlarm(ctx, "comments_count", alarm)
	}

	observability.CommentsTotal.WithLabelValues("deleted").Inc()
	s.logger.LogCall(ctx, "DeleteComment",
		slog.Any("post_id", comment.PostID),
		slog.Any("comment_id", comment.ID),
	)
	return s.ListComments(ctx, comment.PostID, in.RequesterID)
}

// commentDrift compares the stored counter before a deletion with the recount after it.
// A stored zero means the decrement would have gone negative.
func commentDrift(postID uuid.UUID, before, after int64) *models.AppError {
	switch {
	case before <= 0:
		return models.NewConsistencyAlarm("comments_count", postID,
			fmt.Sprintf("stored count was %d before deleting a live comment; recounted to %d", before, after))
	case after != before-1:
		return models.NewConsistencyAlarm("comments_count", postID,
			fmt.Sprintf("stored count %d drifted; recounted to %d", before, after))
	default:
		return nil
	}
}

// ListComments returns the thread of postID oldest first. It has no side effects.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uuid.UUID) (*models.CommentThread, error) {
	post, err := s.repos.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, translate(err, "Post", postID)
	}
	comments, err := s.repos.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, translate(err, "Post", postID)
	}
	views, err := s.projector.commentViews(ctx, comments, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.CommentThread{
		PostID:        postID,
		CommentsCount: post.CommentsCount,
		Comments:      views,
	}, nil
}
