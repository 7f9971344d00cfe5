// Package server contains the HTTP handlers and routing for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quorum/internal/bootstrap"
	"quorum/internal/config"
	"quorum/internal/featureflags"
	"quorum/internal/format"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/notifications"
	"quorum/internal/repository"
	"quorum/internal/service"

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

const serviceName = "quorum-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config              *config.Config
	db                  *gorm.DB
	redis               *redis.Client
	app                 *fiber.App
	promMiddleware      *fiberprometheus.FiberPrometheus
	shutdownCtx         context.Context
	shutdownFn          context.CancelFunc
	userRepo            repository.UserRepository
	postRepo            repository.PostRepository
	voteRepo            repository.VoteRepository
	commentRepo         repository.CommentRepository
	notificationRepo    repository.NotificationRepository
	notifier            *notifications.Notifier
	featureFlags        *featureflags.Manager
	postService         *service.PostService
	voteService         *service.VoteService
	commentService      *service.CommentService
	notificationService *service.NotificationService
}

// NewServer connects to the database and Redis described by cfg and builds a Server on them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedIfEmpty: cfg.SeedOnStart})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; notifications are then stored but not streamed.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("config and database are required")
	}

	s := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		userRepo:         repository.NewUserRepository(db),
		postRepo:         repository.NewPostRepository(db),
		voteRepo:         repository.NewVoteRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		notifier:         notifications.NewNotifier(redisClient),
		featureFlags:     featureflags.NewManager(cfg.FeatureFlags),
	}

	formatter := format.New(format.DefaultCommentPolicy)
	s.notificationService = service.NewNotificationService(s.notificationRepo, s.notifier)
	s.postService = service.NewPostService(s.postRepo, formatter)
	s.voteService = service.NewVoteService(s.voteRepo, s.postRepo)
	s.commentService = service.NewCommentService(
		s.commentRepo, s.postRepo, s.userRepo,
		s.notificationService, formatter, s.featureFlags,
	)

	return s, nil
}

// NewApp builds the Fiber application with all middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Quorum API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before the context middleware so the trace ID reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	s.promMiddleware = middleware.InitMetrics(app, serviceName)

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Votes answer anonymous callers with 403 themselves, so auth is optional here.
	votes := api.Group("/votes", s.OptionalAuth())
	votes.Post("/", s.CastVote)
	votes.Delete("/:id", s.RemoveVote)

	posts := api.Group("/posts")
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(s.redis, 5, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.OptionalAuth(), s.GetComments)
	posts.Get("/:id/vote", s.AuthRequired(), s.GetMyVote)
	posts.Get("/:id", s.GetPost)

	comments := api.Group("/comments", s.AuthRequired())
	comments.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	comments.Patch("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)
	comments.Post("/:id/undelete", s.UndeleteComment)

	inbox := api.Group("/notifications", s.AuthRequired())
	inbox.Get("/", s.GetNotifications)
	inbox.Get("/stream", s.StreamNotifications)
	inbox.Post("/:id/read", s.MarkNotificationRead)

	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Put("/feature-flags/:name", s.SetFeatureFlag)
	admin.Put("/users/:id/roles", s.SetUserRoles)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and Redis answer a ping.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and blocks serving on the configured port.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Ends open notification streams.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

// baseContext is cancelled on Shutdown.
func (s *Server) baseContext() context.Context {
	if s.shutdownCtx != nil {
		return s.shutdownCtx
	}
	return context.Background()
}
