package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-course-api/internal/models"
)

func TestEnrollmentEnrollRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.student(t, "Umar")
	course, _, _ := h.course(t, "Open", 1, 0)

	draft := models.Course{Title: "Draft", Published: false}
	require.NoError(t, h.db.Create(&draft).Error)

	resp, err := h.enrollment.Enroll(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.EnrollmentNotStarted), resp.Status)
	require.Equal(t, "Open", resp.CourseTitle)

	_, err = h.enrollment.Enroll(ctx, student.ID, course.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = h.enrollment.Enroll(ctx, student.ID, draft.ID)
	require.ErrorIs(t, err, ErrCourseNotFound)

	_, err = h.enrollment.Enroll(ctx, student.ID, 9999)
	require.ErrorIs(t, err, ErrCourseNotFound)

	_, err = h.enrollment.Enroll(ctx, 9999, course.ID)
	require.ErrorIs(t, err, ErrStudentNotFound)

	list, err := h.enrollment.List(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestEnrollmentStartMovesToInProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.student(t, "Vina")
	course, _, _ := h.course(t, "Startable", 2, 1)
	h.enroll(t, student.ID, course.ID)

	resp, err := h.enrollment.Start(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.EnrollmentInProgress), resp.Status)
	require.NotNil(t, resp.StartedAt)
	require.NotNil(t, resp.LastAccessed)
	require.Equal(t, "Startable", resp.CourseTitle)

	_, err = h.enrollment.Start(ctx, student.ID, course.ID)
	require.ErrorIs(t, err, ErrCourseAlreadyStarted)

	_, err = h.enrollment.Start(ctx, student.ID, 9999)
	require.ErrorIs(t, err, ErrEnrollmentNotFound)
}
