package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/config"
	"github.com/noah-isme/gema-course-api/internal/handler"
	"github.com/noah-isme/gema-course-api/internal/middleware"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DB                      *gorm.DB
	Redis                   *redis.Client
	StudentDashboardHandler *handler.StudentDashboardHandler
	EnrollmentHandler       *handler.EnrollmentHandler
	LearningHandler         *handler.LearningHandler
	CourseProgressHandler   *handler.CourseProgressHandler
	CertificateHandler      *handler.CertificateHandler
	ContentHandler          *handler.ContentHandler
	AdminActivityHandler    *handler.AdminActivityHandler
	JWTMiddleware           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB, deps.Redis))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	student := app.Group("/api/v2/student", jwtMiddleware)
	if deps.StudentDashboardHandler != nil {
		deps.StudentDashboardHandler.Register(student)
	}
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(student)
	}
	if deps.CourseProgressHandler != nil {
		deps.CourseProgressHandler.Register(student)
	}
	if deps.LearningHandler != nil {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		deps.LearningHandler.Register(student, middleware.RateLimit("learning", cfg.RateLimitMax, window))
	}
	if deps.CertificateHandler != nil {
		deps.CertificateHandler.Register(student)
		deps.CertificateHandler.RegisterPublic(app.Group("/api/v2/certificates"))
	}

	if deps.ContentHandler != nil || deps.AdminActivityHandler != nil {
		admin := app.Group("/api/v2/admin", jwtMiddleware, middleware.RequireRole(models.RoleInstructor, models.RoleAdmin))
		if deps.ContentHandler != nil {
			deps.ContentHandler.Register(admin)
		}
		if deps.AdminActivityHandler != nil {
			deps.AdminActivityHandler.Register(admin, middleware.RequireRole(models.RoleAdmin))
		}
	}
}
