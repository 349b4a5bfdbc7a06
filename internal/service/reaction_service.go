package service

import (
	"context"
	"errors"
	"log/slog"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Reaction outcomes, used as metric labels.
const (
	reactionAdded     = "added"
	reactionSwitched  = "switched"
	reactionRetracted = "retracted"
	reactionUnchanged = "unchanged"
)

// ReactionService owns the like/dislike toggle and the reaction counters on a post.
type ReactionService struct {
	uow    repository.UnitOfWork
	logger *observability.ServiceLogger
}

// NewReactionService returns a ReactionService writing through uow.
func NewReactionService(uow repository.UnitOfWork) *ReactionService {
	return &ReactionService{
		uow:    uow,
		logger: observability.NewServiceLogger("ReactionService"),
	}
}

// NextReaction applies the toggle rule: asking for the kind already held, or for none, clears it.
func NextReaction(current, requested models.ReactionKind) models.ReactionKind {
	if requested == models.ReactionNone || requested == current {
		return models.ReactionNone
	}
	return requested
}

// SetReaction toggles userID's reaction on postID and returns the recomputed counters.
// The reaction row and both counters change in one transaction or not at all.
func (s *ReactionService) SetReaction(
	ctx context.Context,
	postID, userID uuid.UUID,
	kind models.ReactionKind,
) (result *models.ReactionResult, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "ReactionService", "SetReaction",
		attribute.String("post.id", postID.String()),
		attribute.String("reaction.kind", kind.String()),
	)
	defer func() { span.End(err) }()

	if err = requireActor(userID); err != nil {
		return nil, err
	}

	action := reactionUnchanged
	txErr := s.uow.Do(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Posts.Lock(ctx, postID); err != nil {
			return err
		}

		current := models.ReactionNone
		existing, err := repos.Reactions.Find(ctx, postID, userID)
		switch {
		case err == nil:
			current = existing.Kind
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		next := NextReaction(current, kind)
		switch {
		case next == current:
			action = reactionUnchanged
		case next == models.ReactionNone:
			action = reactionRetracted
			if err := repos.Reactions.Delete(ctx, postID, userID); err != nil {
				return err
			}
		default:
			action = reactionAdded
			if current != models.ReactionNone {
				action = reactionSwitched
			}
			if err := repos.Reactions.Upsert(ctx, &models.Reaction{PostID: postID, UserID: userID, Kind: next}); err != nil {
				return err
			}
		}

		if err := repos.Posts.RecountReactions(ctx, postID); err != nil {
			return err
		}
		post, err := repos.Posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		result = &models.ReactionResult{
			PostID:         postID,
			LikesCount:     post.LikesCount,
			DislikesCount:  post.DislikesCount,
			ViewerReaction: next,
		}
		return nil
	})
	if txErr != nil {
		err = translate(txErr, "Post", postID)
		return nil, err
	}

	observability.ReactionsTotal.WithLabelValues(action).Inc()
	s.logger.LogCall(ctx, "SetReaction",
		slog.Any("post_id", postID),
		slog.Any("action", action),
		slog.Any("likes", result.LikesCount),
		slog.Any("dislikes", result.DislikesCount),
	)
	return result, nil
}
