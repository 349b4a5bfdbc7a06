package service

import (
	"context"
	"errors"

	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Projector builds viewer-specific post views. Nothing it returns is cached.
type Projector struct {
	reactions repository.ReactionRepository
	profiles  repository.ProfileRepository
}

// NewProjector returns a Projector reading through the given repositories.
func NewProjector(reactions repository.ReactionRepository, profiles repository.ProfileRepository) *Projector {
	return &Projector{reactions: reactions, profiles: profiles}
}

// ProjectPost resolves the display author and the viewer's own reaction for post.
// A missing profile yields the placeholder label, never an error.
func (p *Projector) ProjectPost(ctx context.Context, post *models.Post, viewerID uuid.UUID) (*models.PostView, error) {
	view := &models.PostView{
		Post:       *post,
		AuthorName: models.AnonymousLabel,
		IsOwn:      viewerID != uuid.Nil && viewerID == post.AuthorID,
	}

	if !post.IsAnonymous {
		profile, err := p.profiles.GetByID(ctx, post.AuthorID)
		switch {
		case err == nil:
			view.AuthorName = displayName(profile.Nickname)
		case errors.Is(err, gorm.ErrRecordNotFound):
			view.AuthorName = models.PlaceholderLabel
		default:
			return nil, translate(err, "Profile", post.AuthorID)
		}
	}

	if viewerID != uuid.Nil {
		reaction, err := p.reactions.Find(ctx, post.ID, viewerID)
		switch {
		case err == nil:
			view.ViewerReaction = reaction.Kind
		case errors.Is(err, gorm.ErrRecordNotFound):
			view.ViewerReaction = models.ReactionNone
		default:
			return nil, translate(err, "Reaction", post.ID)
		}
	}

	return view, nil
}

// ProjectPosts projects a page of posts, loading author names and viewer reactions concurrently.
func (p *Projector) ProjectPosts(ctx context.Context, posts []*models.Post, viewerID uuid.UUID) ([]*models.PostView, error) {
	views := make([]*models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uuid.UUID, 0, len(posts))
	authorIDs := make([]uuid.UUID, 0, len(posts))
	seenAuthor := make(map[uuid.UUID]struct{}, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
		if post.IsAnonymous {
			continue
		}
		if _, ok := seenAuthor[post.AuthorID]; !ok {
			seenAuthor[post.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, post.AuthorID)
		}
	}

	var (
		names map[uuid.UUID]string
		kinds map[uuid.UUID]models.ReactionKind
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		names, err = p.profiles.Nicknames(gctx, authorIDs)
		return err
	})
	g.Go(func() error {
		var err error
		kinds, err = p.reactions.KindsForUser(gctx, viewerID, postIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, models.NewPersistenceError(err)
	}

	for _, post := range posts {
		view := &models.PostView{
			Post:           *post,
			AuthorName:     models.AnonymousLabel,
			ViewerReaction: kinds[post.ID],
			IsOwn:          viewerID != uuid.Nil && viewerID == post.AuthorID,
		}
		if !post.IsAnonymous {
			view.AuthorName = models.PlaceholderLabel
			if name, ok := names[post.AuthorID]; ok {
				view.AuthorName = displayName(name)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// commentViews resolves display authors for a thread.
func (p *Projector) commentViews(ctx context.Context, comments []*models.Comment, viewerID uuid.UUID) ([]*models.CommentView, error) {
	authorIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		if !c.IsAnonymous {
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}
	names, err := p.profiles.Nicknames(ctx, authorIDs)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}

	views := make([]*models.CommentView, 0, len(comments))
	for _, c := range comments {
		view := &models.CommentView{
			Comment:    *c,
			AuthorName: models.AnonymousLabel,
			IsOwn:      viewerID != uuid.Nil && viewerID == c.AuthorID,
		}
		if !c.IsAnonymous {
			view.AuthorName = models.PlaceholderLabel
			if name, ok := names[c.AuthorID]; ok {
				view.AuthorName = displayName(name)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func displayName(nickname string) string {
	if nickname == "" {
		return models.PlaceholderLabel
	}
	return nickname
}
