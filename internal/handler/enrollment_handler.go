package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/service"
	"github.com/noah-isme/gema-course-api/internal/utils"
)

// EnrollmentHandler exposes enrollment endpoints for students.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches the enrollment routes.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Get("/enrollments", h.list)
	router.Post("/courses/:courseId/enroll", h.enroll)
	router.Post("/courses/:courseId/start", h.start)
}

func (h *EnrollmentHandler) list(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	enrollments, err := h.service.List(c.UserContext(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.Enroll(c.UserContext(), studentID, courseID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", enrollment)
}

func (h *EnrollmentHandler) start(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.Start(c.UserContext(), studentID, courseID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course started", enrollment)
}

func (h *EnrollmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "already enrolled in course")
	case errors.Is(err, service.ErrCourseAlreadyStarted):
		return utils.SendError(c, fiber.StatusConflict, "course already started")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("enrollment request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process enrollment")
	}
}
