// Package server contains the HTTP handlers and route table of the engagement API.
package server

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"time"

	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/featureflags"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config            *config.Config
	db                *gorm.DB
	redis             *redis.Client
	app               *fiber.App
	promMiddleware    *fiberprometheus.FiberPrometheus
	background        context.Context
	stopBackground    context.CancelFunc
	repos             *repository.Repositories
	verifier          *middleware.TokenVerifier
	notifier          *notifications.Notifier
	featureFlags      *featureflags.Manager
	limiter           *middleware.RateLimiter
	postService       *service.PostService
	reactionService   *service.ReactionService
	commentService    *service.CommentService
	moderationService *service.ModerationService
}

// NewServer connects to the database and Redis, then builds a server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limiting, token revocation and moderation
// events are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	repos := repository.NewRepositories(db)
	uow := repository.NewUnitOfWork(db)
	isAdmin := service.AdminChecker(repos.Profiles.IsAdmin)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("murmur-api"),
		repos:          repos,
		verifier:       middleware.NewTokenVerifier(cfg, redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
	}
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}

	s.postService = service.NewPostService(uow, repos, isAdmin)
	s.reactionService = service.NewReactionService(uow)
	s.commentService = service.NewCommentService(uow, repos, isAdmin)
	s.moderationService = service.NewModerationService(uow, repos, isAdmin, s.notifier)

	s.background, s.stopBackground = context.WithCancel(context.Background())
	s.app = s.newApp()
	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cmp.Or(s.config.AllowedOrigins, "http://localhost:5173,http://localhost:3000"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Coarse per-IP ceiling; per-user write limits are applied on individual routes.
	app.Use(limiter.New(limiter.Config{
		Max:          100,
		Expiration:   time.Minute,
		Next:         func(c *fiber.Ctx) bool { return c.Method() == fiber.MethodOptions },
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests",
				Code:  middleware.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Public reads; a bearer token, when present, personalizes the projection.
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)
	api.Get("/topics/stats", s.GetTopicStats)
	api.Get("/features", s.GetFeatures)

	protected := api.Group("", s.AuthRequired())

	posts := protected.Group("/posts")
	posts.Post("/", s.limiter.Handler(middleware.CreatePostRule), s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id route.
	posts.Put("/:id/reaction", s.SetReaction)
	posts.Post("/:id/comments", s.limiter.Handler(middleware.CreateCommentRule), s.CreateComment)
	posts.Post("/:id/reports", s.limiter.Handler(middleware.ReportPostRule), s.ReportPost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Delete("/:id", s.DeleteComment)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/reports", s.GetAdminReports)
	admin.Post("/reports/:id/resolve", s.ResolveReport)
	admin.Delete("/posts/:id", s.RemovePost)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// newApp builds the Fiber application with middleware and routes installed.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "murmur",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}
