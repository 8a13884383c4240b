package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/service"
	"github.com/noah-isme/gema-course-api/internal/utils"
)

// StudentDashboardHandler exposes the student dashboard and course list.
type StudentDashboardHandler struct {
	service service.StudentDashboardService
	logger  zerolog.Logger
}

// NewStudentDashboardHandler creates a new handler instance.
func NewStudentDashboardHandler(service service.StudentDashboardService, logger zerolog.Logger) *StudentDashboardHandler {
	return &StudentDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "student_dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoints.
func (h *StudentDashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
	router.Get("/courses", h.listCourses)
}

func (h *StudentDashboardHandler) getDashboard(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	dashboard, cacheHit, err := h.service.GetDashboard(c.UserContext(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to load dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load dashboard")
	}

	return utils.SendSuccessWithMeta(c, "dashboard retrieved", dashboard, map[string]interface{}{"cache_hit": cacheHit})
}

func (h *StudentDashboardHandler) listCourses(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	courses, err := h.service.ListCourses(c.UserContext(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to list courses")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list courses")
	}

	return utils.SendSuccessWithMeta(c, "courses retrieved", courses, map[string]interface{}{"count": len(courses)})
}
