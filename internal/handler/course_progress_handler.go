package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/service"
	"github.com/noah-isme/gema-course-api/internal/utils"
)

// CourseProgressHandler serves course detail and continue-learning reads.
type CourseProgressHandler struct {
	service service.CourseProgressService
	logger  zerolog.Logger
}

// NewCourseProgressHandler constructs the handler.
func NewCourseProgressHandler(service service.CourseProgressService, logger zerolog.Logger) *CourseProgressHandler {
	return &CourseProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "course_progress_handler").Logger(),
	}
}

// Register attaches the progress routes.
func (h *CourseProgressHandler) Register(router fiber.Router) {
	router.Get("/courses/:courseId/progress", h.getProgress)
	router.Get("/continue-learning", h.continueLearning)
}

func (h *CourseProgressHandler) getProgress(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.GetCourseProgress(c.UserContext(), studentID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		case errors.Is(err, service.ErrEnrollmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("course_id", courseID).Msg("failed to load course progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load course progress")
	}

	return utils.SendSuccess(c, "course progress retrieved", response)
}

func (h *CourseProgressHandler) continueLearning(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	response, err := h.service.ContinueLearning(c.UserContext(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve continue learning target")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve continue learning target")
	}

	message := "continue learning target retrieved"
	if response.Target == nil {
		message = "nothing to continue"
	}
	return utils.SendSuccess(c, message, response)
}
