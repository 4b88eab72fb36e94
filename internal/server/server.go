// Package server contains the HTTP handlers of the learner dashboard API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"learnhub/internal/banner"
	"learnhub/internal/bootstrap"
	"learnhub/internal/cache"
	"learnhub/internal/config"
	"learnhub/internal/featureflags"
	"learnhub/internal/jobs"
	"learnhub/internal/middleware"
	"learnhub/internal/models"
	"learnhub/internal/notifications"
	"learnhub/internal/photoid"
	"learnhub/internal/repository"
	"learnhub/internal/service"
)

const tokenTTL = 24 * time.Hour

// Server holds all dependencies for the HTTP server
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         middleware.Tokens
	featureFlags   *featureflags.Manager
	scheduler      *jobs.Scheduler

	userRepo            repository.UserRepository
	dashboardService    *service.DashboardService
	verificationService *service.VerificationService
	courseService       *service.CourseService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: cfg.SeedDemo})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb), nil
}

// NewServerWithDeps wires repositories and services over existing clients.
// A nil redis client disables caching and rate limiting.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	store := cache.NewStore(redisClient)
	policy := cfg.Policy()
	flags := featureflags.NewManager(cfg.FeatureFlags)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attemptRepo := repository.NewVerificationRepository(db)

	var emailer notifications.Emailer = notifications.LogEmailer{Logger: middleware.Logger}
	if cfg.SendGridAPIKey != "" {
		emailer = notifications.NewSendGridEmailer(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	}
	notifier := notifications.NewVerificationNotifier(emailer, cfg.PlatformName)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("learnhub-api"),
		tokens: middleware.Tokens{
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			TTL:      tokenTTL,
		},
		featureFlags: flags,
		userRepo:     userRepo,
		dashboardService: service.NewDashboardService(service.DashboardDeps{
			Enrollments: enrollmentRepo,
			Courses:     courseRepo,
			Attempts:    attemptRepo,
			Flags:       flags,
			Policy:      policy,
			Renderer:    banner.NewRenderer(cfg.PlatformName),
			Cache:       store,
			CacheTTL:    cfg.DashboardCacheTTL(),
		}),
		verificationService: service.NewVerificationService(
			attemptRepo,
			userRepo,
			photoid.NewInspector(cfg.PhotoMaxUploadBytes()),
			notifier,
			store,
			policy,
		),
		courseService: service.NewCourseService(courseRepo, enrollmentRepo, userRepo, store),
	}
}

// App builds the fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Learnhub API",
		// Face and ID photo plus form overhead.
		BodyLimit:    int(2*s.config.PhotoMaxUploadBytes()) + 1<<20,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithAppError(c, err)
}

// SetupMiddleware configures all middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/dashboard", s.GetDashboard)

	verifications := protected.Group("/verifications")
	verifications.Post("/", middleware.RateLimit(s.redis, 5, time.Hour, "start_verification"), s.StartVerification)
	verifications.Get("/me", s.GetMyVerifications)
	verifications.Post("/:id/photos", middleware.RateLimit(s.redis, 10, time.Hour, "upload_photos"), s.UploadVerificationPhotos)
	verifications.Post("/:id/submit", s.SubmitVerification)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Learnhub API Metrics",
	}))

	reviews := admin.Group("/verifications")
	reviews.Post("/:id/approve", s.ApproveVerification)
	reviews.Post("/:id/deny", s.DenyVerification)
	reviews.Post("/:id/error", s.FailVerification)

	courses := admin.Group("/courses")
	courses.Post("/", s.CreateCourse)
	courses.Put("/:id/modes/:slug", s.UpsertCourseMode)
	courses.Put("/:id/deadline", s.SetCourseDeadline)
	courses.Post("/:id/enrollments", s.EnrollUser)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so an
// unconfigured cache does not fail readiness but an unreachable one does.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// AuthRequired verifies the bearer token and stores the user ID in locals
// and in the request context.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := s.tokens.Verify(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", userID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
		if err != nil {
			if models.StatusCode(err) == fiber.StatusNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Account no longer exists"))
			}
			return models.RespondWithAppError(c, err)
		}
		if !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// StartJobs schedules the background expiry sweep.
func (s *Server) StartJobs() error {
	runner := jobs.NewRunner(s.verificationService)
	scheduler, err := jobs.NewScheduler(runner, s.config.ExpirySweepSchedule)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	scheduler.Start()
	s.scheduler = scheduler
	return nil
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.scheduler != nil {
		s.scheduler.Stop()
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
