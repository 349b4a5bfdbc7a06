// Package seed fills a development database with demo engagement data.
// Every write goes through the services so derived counters stay consistent.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers  int
	NumAdmins int
	NumPosts  int
	// MaxCommentsPerPost bounds the comments added to each post.
	MaxCommentsPerPost int
	// ReportRatio is the share of posts, in percent, that receive a report.
	ReportRatio int
	// RandSeed makes a run reproducible; zero seeds from the clock.
	RandSeed int64
}

// DefaultOptions returns a small but lively data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:           25,
		NumAdmins:          1,
		NumPosts:           80,
		MaxCommentsPerPost: 4,
		ReportRatio:        10,
	}
}

// Summary counts what a run created.
type Summary struct {
	Profiles  int
	Admins    int
	Posts     int
	Reactions int
	Comments  int
	Reports   int
	Resolved  int
}

// Seeder writes demo data through the engagement services.
type Seeder struct {
	db         *gorm.DB
	repos      *repository.Repositories
	posts      *service.PostService
	reactions  *service.ReactionService
	comments   *service.CommentService
	moderation *service.ModerationService
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	repos := repository.NewRepositories(db)
	uow := repository.NewUnitOfWork(db)
	isAdmin := service.AdminChecker(repos.Profiles.IsAdmin)
	return &Seeder{
		db:         db,
		repos:      repos,
		posts:      service.NewPostService(uow, repos, isAdmin),
		reactions:  service.NewReactionService(uow),
		comments:   service.NewCommentService(uow, repos, isAdmin),
		moderation: service.NewModerationService(uow, repos, isAdmin, nil),
	}
}

// ClearAll removes every engagement row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	for _, model := range []any{
		&models.Report{},
		&models.Comment{},
		&models.Reaction{},
		&models.Post{},
		&models.UserRole{},
		&models.Profile{},
	} {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	middleware.Logger.Info("seed: cleared existing data")
	return nil
}

// Run creates profiles, posts, reactions, comments and reports according to opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)
	sum := &Summary{}

	users, err := s.createProfiles(ctx, faker, opts.NumUsers)
	if err != nil {
		return nil, err
	}
	sum.Profiles = len(users)

	admins, err := s.createProfiles(ctx, faker, opts.NumAdmins)
	if err != nil {
		return nil, err
	}
	for _, id := range admins {
		if err := s.repos.Profiles.GrantRole(ctx, id, models.RoleAdmin); err != nil {
			return nil, fmt.Errorf("grant admin: %w", err)
		}
	}
	sum.Admins = len(admins)
	sum.Profiles += len(admins)

	if len(users) == 0 {
		return sum, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := pick(faker, users)
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			AuthorID:    author,
			Content:     faker.Paragraph(1, faker.Number(1, 3), faker.Number(6, 14), " "),
			Topic:       string(models.AllTopics[faker.Number(0, len(models.AllTopics)-1)]),
			IsAnonymous: faker.Number(1, 100) <= 20,
		})
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		sum.Posts++

		if err := s.engage(ctx, faker, opts, post.ID, users, admins, sum); err != nil {
			return nil, err
		}
	}

	middleware.Logger.Info("seed: completed",
		slog.Int("profiles", sum.Profiles),
		slog.Int("posts", sum.Posts),
		slog.Int("reactions", sum.Reactions),
		slog.Int("comments", sum.Comments),
		slog.Int("reports", sum.Reports),
	)
	return sum, nil
}

func (s *Seeder) createProfiles(ctx context.Context, faker *gofakeit.Faker, n int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		profile := &models.Profile{ID: uuid.New(), Nickname: faker.Username()}
		if err := s.repos.Profiles.Upsert(ctx, profile); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		ids = append(ids, profile.ID)
	}
	return ids, nil
}

// engage adds reactions, comments and possibly a report to one post.
func (s *Seeder) engage(
	ctx context.Context,
	faker *gofakeit.Faker,
	opts Options,
	postID uuid.UUID,
	users, admins []uuid.UUID,
	sum *Summary,
) error {
	for _, user := range users {
		roll := faker.Number(1, 100)
		var kind models.ReactionKind
		switch {
		case roll <= 30:
			kind = models.ReactionLike
		case roll <= 40:
			kind = models.ReactionDislike
		default:
			continue
		}
		if _, err := s.reactions.SetReaction(ctx, postID, user, kind); err != nil {
			return fmt.Errorf("react: %w", err)
		}
		sum.Reactions++
	}

	if opts.MaxCommentsPerPost > 0 {
		for n := faker.Number(0, opts.MaxCommentsPerPost); n > 0; n-- {
			_, err := s.comments.AddComment(ctx, service.AddCommentInput{
				PostID:      postID,
				UserID:      pick(faker, users),
				Content:     faker.Sentence(faker.Number(3, 12)),
				IsAnonymous: faker.Bool(),
			})
			if err != nil {
				return fmt.Errorf("comment: %w", err)
			}
			sum.Comments++
		}
	}

	if faker.Number(1, 100) > opts.ReportRatio {
		return nil
	}
	report, err := s.moderation.SubmitReport(ctx, postID, pick(faker, users), faker.HackerPhrase())
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	sum.Reports++

	if len(admins) > 0 && faker.Bool() {
		if _, err := s.moderation.ResolveReport(ctx, report.ID, pick(faker, admins)); err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		sum.Resolved++
	}
	return nil
}

func pick(faker *gofakeit.Faker, ids []uuid.UUID) uuid.UUID {
	return ids[faker.Number(0, len(ids)-1)]
}
