package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/service"
	"github.com/noah-isme/gema-course-api/internal/utils"
)

// LearningHandler exposes lesson completion and quiz submission.
type LearningHandler struct {
	service service.LearningService
	logger  zerolog.Logger
}

// NewLearningHandler constructs the handler.
func NewLearningHandler(service service.LearningService, logger zerolog.Logger) *LearningHandler {
	return &LearningHandler{
		service: service,
		logger:  logger.With().Str("component", "learning_handler").Logger(),
	}
}

// Register attaches the learning action routes. Extra handlers, such as a rate limiter, run first.
func (h *LearningHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/lessons/:lessonId/complete", guarded(guards, h.completeLesson)...)
	router.Post("/quizzes/:quizId/attempts", guarded(guards, h.submitAttempt)...)
}

func (h *LearningHandler) completeLesson(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	lessonID, err := parseIDParam(c, "lessonId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.CompleteLesson(c.UserContext(), studentID, lessonID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson completed", response)
}

func (h *LearningHandler) submitAttempt(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	quizID, err := parseIDParam(c, "quizId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuizAttemptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SubmitQuizAttempt(c.UserContext(), studentID, quizID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz attempt recorded", response)
}

func (h *LearningHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return sendValidationError(c, err)
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in course")
	case errors.Is(err, service.ErrLessonAlreadyCompleted):
		return utils.SendError(c, fiber.StatusConflict, "lesson already completed")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("learning action failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to record learning activity")
	}
}
