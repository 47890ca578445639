// Package server contains the HTTP handlers for the diary's server-rendered pages.
package server

import (
	"context"
	"fmt"
	"time"

	"shapediary/internal/cache"
	"shapediary/internal/config"
	"shapediary/internal/database"
	"shapediary/internal/featureflags"
	"shapediary/internal/imagegen"
	"shapediary/internal/middleware"
	"shapediary/internal/repository"
	"shapediary/internal/sentiment"
	"shapediary/internal/service"
	"shapediary/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	sessions       *session.Store
	featureFlags   *featureflags.Manager
	lexicon        *sentiment.Lexicon
	drafts         *service.DraftStore
	diary          *service.DiaryService
	images         *service.ImageWorkflow
	views          *views
	location       *time.Location
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	lexicon, err := sentiment.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("lexicon load failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), lexicon, imagegen.NewClient(cfg))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// substitutes the image generator.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, lexicon *sentiment.Lexicon, generator service.Generator) (*Server, error) {
	drafts, err := service.NewDraftStore(cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("draft store init failed: %w", err)
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid display timezone %q: %w", cfg.DisplayTimezone, err)
	}

	views, err := newViews()
	if err != nil {
		return nil, fmt.Errorf("template parse failed: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("shapediary"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		sessions:       session.NewStore(redisClient, cfg.SessionSecret),
		featureFlags:   flags,
		lexicon:        lexicon,
		drafts:         drafts,
		views:          views,
		location:       loc,
	}
	server.diary = service.NewDiaryService(postRepo, userRepo, drafts)
	server.images = service.NewImageWorkflow(postRepo, lexicon, generator, drafts, flags, cfg.StaticURL)

	return server, nil
}

// Drafts exposes the draft store so the bootstrap layer can start the sweeper.
func (s *Server) Drafts() *service.DraftStore {
	return s.drafts
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Confirmed and staged images
	app.Static("/"+s.config.StaticURL, s.config.StaticDir)

	// Public auth pages
	app.Get("/newuser", s.ShowRegister)
	app.Post("/newuser", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Register)
	app.Get("/login", s.ShowLogin)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Everything below needs a live session
	protected := app.Group("", s.SessionRequired())
	protected.Get("/", s.Index)
	protected.Post("/", s.Index)
	protected.Get("/logout", s.Logout)
	protected.Post("/posts", s.CreatePost)
	protected.Get("/edit", s.ShowEdit)
	protected.Get("/delete/:post_id", s.DeletePost)

	// Image generation is the expensive path, so it gets its own limit
	newimageLimit := middleware.RateLimit(s.redis, 10, time.Minute, "newimage")
	protected.Get("/newimage", newimageLimit, s.NewImage)
	protected.Post("/newimage", newimageLimit, s.NewImage)
	protected.Post("/confirm_image", s.ConfirmImage)

	protected.Get("/user_delete_confirm", s.ShowDeleteAccount)
	protected.Post("/user_delete", s.DeleteAccount)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Sessions live in Redis, so readiness requires it
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
