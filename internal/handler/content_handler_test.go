package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/handler"
	"github.com/noah-isme/gema-course-api/internal/service"
)

type stubContentService struct {
	validate  *validator.Validate
	err       error
	lastActor service.ContentActor
}

func (s *stubContentService) CreateCourse(_ context.Context, actor service.ContentActor, req dto.CourseCreateRequest) (dto.CourseResponse, error) {
	s.lastActor = actor
	if err := s.validate.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.CourseResponse{ID: 1, Title: req.Title, InstructorID: actor.ID, Lessons: []dto.LessonResponse{}, Quizzes: []dto.QuizResponse{}}, s.err
}

func (s *stubContentService) GetCourse(_ context.Context, courseID uint) (dto.CourseResponse, error) {
	return dto.CourseResponse{ID: courseID}, s.err
}

func (s *stubContentService) ListCourses(_ context.Context, actor service.ContentActor) ([]dto.CourseResponse, error) {
	s.lastActor = actor
	return []dto.CourseResponse{}, s.err
}

func (s *stubContentService) AddLesson(_ context.Context, actor service.ContentActor, courseID uint, req dto.LessonCreateRequest) (dto.LessonResponse, error) {
	s.lastActor = actor
	return dto.LessonResponse{ID: 1, CourseID: courseID, Title: req.Title}, s.err
}

func (s *stubContentService) AddQuiz(_ context.Context, actor service.ContentActor, courseID uint, req dto.QuizCreateRequest) (dto.QuizResponse, error) {
	s.lastActor = actor
	if err := s.validate.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}
	return dto.QuizResponse{ID: 1, CourseID: courseID, PassingScore: *req.PassingScore}, s.err
}

func newContentApp(svc service.ContentService) *fiber.App {
	app := fiber.New()
	handler.NewContentHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/admin", withUser(11, "instructor")))
	return app
}

func TestContentHandler_CreateCourseUsesActor(t *testing.T) {
	svc := &stubContentService{validate: validator.New()}
	app := newContentApp(svc)

	resp, payload := doRequest(t, app, http.MethodPost, "/api/v2/admin/courses", `{"title":"Go Basics","published":true}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(11), svc.lastActor.ID)
	require.Equal(t, "instructor", svc.lastActor.Role)

	var data dto.CourseResponse
	decodeData(t, payload, &data)
	require.Equal(t, "Go Basics", data.Title)

	resp, payload = doRequest(t, app, http.MethodPost, "/api/v2/admin/courses", `{"title":"Go"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "min", payload.Details["title"])

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v2/admin/courses", `{"title":`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestContentHandler_LessonAndQuizRoutes(t *testing.T) {
	svc := &stubContentService{validate: validator.New()}
	app := newContentApp(svc)

	resp, _ := doRequest(t, app, http.MethodPost, "/api/v2/admin/courses/5/lessons", `{"title":"Setup"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, payload := doRequest(t, app, http.MethodPost, "/api/v2/admin/courses/5/quizzes", `{"title":"Check","passing_score":0}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var quiz dto.QuizResponse
	decodeData(t, payload, &quiz)
	require.Equal(t, 0, quiz.PassingScore)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v2/admin/courses/5", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v2/admin/courses", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestContentHandler_ErrorMapping(t *testing.T) {
	app := newContentApp(&stubContentService{validate: validator.New(), err: service.ErrCourseForbidden})
	resp, _ := doRequest(t, app, http.MethodPost, "/api/v2/admin/courses/5/lessons", `{"title":"Setup"}`)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = newContentApp(&stubContentService{validate: validator.New(), err: service.ErrCourseNotFound})
	resp, _ = doRequest(t, app, http.MethodGet, "/api/v2/admin/courses/5", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
