package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/handler"
	"github.com/noah-isme/gema-course-api/internal/service"
)

type stubEnrollmentService struct {
	err        error
	lastCourse uint
}

func (s *stubEnrollmentService) Enroll(_ context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error) {
	s.lastCourse = courseID
	return dto.EnrollmentResponse{ID: 1, CourseID: courseID, Status: "not_started"}, s.err
}

func (s *stubEnrollmentService) Start(_ context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error) {
	s.lastCourse = courseID
	return dto.EnrollmentResponse{ID: 1, CourseID: courseID, Status: "in_progress"}, s.err
}

func (s *stubEnrollmentService) List(context.Context, uint) ([]dto.EnrollmentResponse, error) {
	return []dto.EnrollmentResponse{{ID: 1, CourseID: 2}}, s.err
}

func newEnrollmentApp(svc service.EnrollmentService) *fiber.App {
	app := fiber.New()
	handler.NewEnrollmentHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/student", withUser(4, "student")))
	return app
}

func TestEnrollmentHandler_EnrollAndStart(t *testing.T) {
	svc := &stubEnrollmentService{}
	app := newEnrollmentApp(svc)

	resp, payload := doRequest(t, app, http.MethodPost, "/api/v2/student/courses/21/enroll", "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(21), svc.lastCourse)

	var enrolled dto.EnrollmentResponse
	decodeData(t, payload, &enrolled)
	require.Equal(t, "not_started", enrolled.Status)

	resp, payload = doRequest(t, app, http.MethodPost, "/api/v2/student/courses/21/start", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "course started", payload.Message)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v2/student/enrollments", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v2/student/courses/0/enroll", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEnrollmentHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: service.ErrCourseNotFound, status: fiber.StatusNotFound},
		{err: service.ErrStudentNotFound, status: fiber.StatusNotFound},
		{err: service.ErrEnrollmentNotFound, status: fiber.StatusNotFound},
		{err: service.ErrAlreadyEnrolled, status: fiber.StatusConflict},
		{err: service.ErrCourseAlreadyStarted, status: fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := newEnrollmentApp(&stubEnrollmentService{err: tc.err})
			resp, payload := doRequest(t, app, http.MethodPost, "/api/v2/student/courses/3/start", "")
			require.Equal(t, tc.status, resp.StatusCode)
			require.False(t, payload.Success)
		})
	}
}
