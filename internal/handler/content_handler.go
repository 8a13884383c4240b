package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/service"
	"github.com/noah-isme/gema-course-api/internal/utils"
)

// ContentHandler exposes course authoring for instructors and admins.
type ContentHandler struct {
	service service.ContentService
	logger  zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(service service.ContentService, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service: service,
		logger:  logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register attaches the authoring routes.
func (h *ContentHandler) Register(router fiber.Router) {
	router.Get("/courses", h.listCourses)
	router.Post("/courses", h.createCourse)
	router.Get("/courses/:courseId", h.getCourse)
	router.Post("/courses/:courseId/lessons", h.addLesson)
	router.Post("/courses/:courseId/quizzes", h.addQuiz)
}

func (h *ContentHandler) actor(c *fiber.Ctx) (service.ContentActor, error) {
	id, err := extractUserID(c)
	if err != nil {
		return service.ContentActor{}, err
	}
	return service.ContentActor{ID: id, Role: userRoleFromContext(c)}, nil
}

func (h *ContentHandler) listCourses(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	courses, err := h.service.ListCourses(c.UserContext(), actor)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *ContentHandler) createCourse(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.CreateCourse(c.UserContext(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *ContentHandler) getCourse(c *fiber.Ctx) error {
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.GetCourse(c.UserContext(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *ContentHandler) addLesson(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	lesson, err := h.service.AddLesson(c.UserContext(), actor, courseID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *ContentHandler) addQuiz(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuizCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	quiz, err := h.service.AddQuiz(c.UserContext(), actor, courseID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz created", quiz)
}

func (h *ContentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return sendValidationError(c, err)
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrCourseForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "course belongs to another instructor")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("content request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process content request")
	}
}
