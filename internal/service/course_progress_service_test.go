package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
)

func TestCourseProgressReportsLessonsQuizzesAndCertificate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.student(t, "Zaki")
	course, lessons, quizzes := h.course(t, "Detail", 2, 1)
	h.enroll(t, student.ID, course.ID)
	svc := NewCourseProgressService(h.courses, h.enrollments, h.certRepo, h.completion, zerolog.Nop())

	_, err := h.learning.CompleteLesson(ctx, student.ID, lessons[0].ID)
	require.NoError(t, err)

	resp, err := svc.GetCourseProgress(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.EnrollmentInProgress), resp.Status)
	require.Equal(t, 40, resp.Stats.Progress)
	require.Len(t, resp.Lessons, 2)
	require.True(t, resp.Lessons[0].Completed)
	require.NotNil(t, resp.Lessons[0].CompletedAt)
	require.False(t, resp.Lessons[1].Completed)
	require.Equal(t, lessons[1].ID, resp.NextLesson.ID)
	require.Len(t, resp.Quizzes, 1)
	require.False(t, resp.Quizzes[0].Attempted)
	require.Nil(t, resp.Quizzes[0].LatestScore)
	require.Nil(t, resp.Certificate)
	require.NotNil(t, resp.LastAccessed)

	_, err = h.learning.CompleteLesson(ctx, student.ID, lessons[1].ID)
	require.NoError(t, err)
	_, err = h.learning.SubmitQuizAttempt(ctx, student.ID, quizzes[0].ID, dto.QuizAttemptRequest{Score: intPtr(55)})
	require.NoError(t, err)

	done, err := svc.GetCourseProgress(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.EnrollmentCompleted), done.Status)
	require.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.Certificate)
	require.Equal(t, "Detail", done.Certificate.CourseTitle)
	require.Equal(t, 55, *done.Quizzes[0].LatestScore)
	require.False(t, done.Quizzes[0].Passed)
}

func TestCourseProgressErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.student(t, "Abel")
	course, _, _ := h.course(t, "Locked", 1, 0)
	svc := NewCourseProgressService(h.courses, h.enrollments, h.certRepo, h.completion, zerolog.Nop())

	_, err := svc.GetCourseProgress(ctx, student.ID, 9999)
	require.ErrorIs(t, err, ErrCourseNotFound)

	_, err = svc.GetCourseProgress(ctx, student.ID, course.ID)
	require.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestCourseProgressDegradedStillListsContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.student(t, "Bela")
	course, _, _ := h.course(t, "Partial", 2, 1)
	h.enroll(t, student.ID, course.ID)

	degraded := h.completionWith(CompletionDependencies{Lessons: failingLessons{h.lessons}})
	svc := NewCourseProgressService(h.courses, h.enrollments, h.certRepo, degraded, zerolog.Nop())

	resp, err := svc.GetCourseProgress(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.EnrollmentNotStarted), resp.Status)
	require.Len(t, resp.Lessons, 2)
	require.Len(t, resp.Quizzes, 1)
	require.Zero(t, resp.Stats.Progress)
	require.Nil(t, resp.NextLesson)
}

func TestContinueLearningPicksMostRecentUnfinishedCourse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.student(t, "Cahya")
	older, _, _ := h.course(t, "Older", 2, 0)
	recent, recentLessons, _ := h.course(t, "Recent", 2, 0)
	finished, finishedLessons, _ := h.course(t, "Finished", 1, 0)
	for _, courseID := range []uint{older.ID, recent.ID, finished.ID} {
		h.enroll(t, student.ID, courseID)
	}
	svc := NewCourseProgressService(h.courses, h.enrollments, h.certRepo, h.completion, zerolog.Nop())

	_, err := h.learning.CompleteLesson(ctx, student.ID, finishedLessons[0].ID)
	require.NoError(t, err)

	base := time.Now().UTC()
	olderEnrollment := h.enrollmentOf(t, student.ID, older.ID)
	recentEnrollment := h.enrollmentOf(t, student.ID, recent.ID)
	require.NoError(t, h.enrollments.TouchLastAccessed(ctx, olderEnrollment.ID, base.Add(-time.Hour)))
	require.NoError(t, h.enrollments.TouchLastAccessed(ctx, recentEnrollment.ID, base))
	_, err = h.learning.CompleteLesson(ctx, student.ID, recentLessons[0].ID)
	require.NoError(t, err)

	resp, err := svc.ContinueLearning(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.Target)
	require.Equal(t, recent.ID, resp.Target.CourseID)
	require.Equal(t, "Recent", resp.Target.CourseTitle)
	require.Equal(t, 50, resp.Target.Progress)
	require.Equal(t, recentLessons[1].ID, resp.Target.NextLesson.ID)
}

func TestContinueLearningNothingToContinue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.student(t, "Dodi")
	svc := NewCourseProgressService(h.courses, h.enrollments, h.certRepo, h.completion, zerolog.Nop())

	resp, err := svc.ContinueLearning(ctx, student.ID)
	require.NoError(t, err)
	require.Nil(t, resp.Target)

	course, lessons, _ := h.course(t, "Done", 1, 0)
	h.enroll(t, student.ID, course.ID)
	_, err = h.learning.CompleteLesson(ctx, student.ID, lessons[0].ID)
	require.NoError(t, err)

	resp, err = svc.ContinueLearning(ctx, student.ID)
	require.NoError(t, err)
	require.Nil(t, resp.Target)
}
