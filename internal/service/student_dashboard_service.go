package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/observability"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

// StudentDashboardService aggregates course progress across a student's enrollments.
type StudentDashboardService interface {
	// GetDashboard never fails on progress computation; it degrades to empty collections.
	GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, bool, error)
	ListCourses(ctx context.Context, studentID uint) ([]dto.CourseSummary, error)
}

type studentDashboardService struct {
	enrollments  repository.EnrollmentRepository
	completion   CompletionService
	certificates CertificateService
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(enrollments repository.EnrollmentRepository, completion CompletionService, certificates CertificateService, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		enrollments:  enrollments,
		completion:   completion,
		certificates: certificates,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "student_dashboard_service").Logger(),
	}
}

func dashboardCacheKey(studentID uint) string {
	return fmt.Sprintf("dashboard:student:%d", studentID)
}

// invalidateDashboard drops the cached dashboard after a write that changes it.
func invalidateDashboard(ctx context.Context, cache *redis.Client, logger zerolog.Logger, studentID uint) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, dashboardCacheKey(studentID)).Err(); err != nil {
		logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate dashboard cache")
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, bool, error) {
	cacheKey := dashboardCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				observability.DashboardRequests().WithLabelValues("hit").Inc()
				return response, true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}
	observability.DashboardRequests().WithLabelValues("miss").Inc()

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to list enrollments, returning empty dashboard")
		return emptyDashboard(), false, nil
	}

	courses, complete := s.summarise(ctx, enrollments)
	certificates, listed := s.listCertificates(ctx, studentID)
	response := dto.StudentDashboardResponse{
		Summary:      buildSummary(courses),
		Courses:      courses,
		Certificates: certificates,
	}

	// A partial dashboard is served but never cached.
	if s.cache != nil && complete && listed {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, false, nil
}

func (s *studentDashboardService) ListCourses(ctx context.Context, studentID uint) ([]dto.CourseSummary, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to list enrollments, returning no courses")
		return []dto.CourseSummary{}, nil
	}
	courses, _ := s.summarise(ctx, enrollments)
	return courses, nil
}

// summarise rechecks every enrollment. Enrollments whose evaluation fails are skipped and
// complete is false.
func (s *studentDashboardService) summarise(ctx context.Context, enrollments []models.Enrollment) (courses []dto.CourseSummary, complete bool) {
	courses = make([]dto.CourseSummary, 0, len(enrollments))
	complete = true
	for _, enrollment := range enrollments {
		outcome := s.completion.Recheck(ctx, enrollment.StudentID, enrollment.CourseID)
		if outcome.Degraded || outcome.NoEnrollment {
			s.logger.Warn().
				Uint("student_id", enrollment.StudentID).
				Uint("course_id", enrollment.CourseID).
				Bool("degraded", outcome.Degraded).
				Msg("skipping enrollment on dashboard")
			if outcome.Degraded {
				complete = false
			}
			continue
		}

		current := outcome.Enrollment
		result := outcome.Result
		courses = append(courses, dto.CourseSummary{
			EnrollmentID:     current.ID,
			CourseID:         current.CourseID,
			Title:            enrollment.Course.Title,
			Status:           string(current.Status),
			Progress:         result.Progress,
			TotalLessons:     result.TotalLessons,
			CompletedLessons: result.CompletedLessons,
			TotalQuizzes:     result.TotalQuizzes,
			CompletedQuizzes: result.CompletedQuizzes,
			PassedQuizzes:    result.PassedQuizzes,
			NextLesson:       dto.NewLessonRef(result.NextLesson),
			EnrolledAt:       current.EnrolledAt,
			CompletedAt:      current.CompletedAt,
			LastAccessed:     latest(current.LastAccessed, result.LastActivity),
		})
	}
	return courses, complete
}

func (s *studentDashboardService) listCertificates(ctx context.Context, studentID uint) ([]dto.CertificateResponse, bool) {
	certificates, err := s.certificates.List(ctx, studentID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to list certificates for dashboard")
		return []dto.CertificateResponse{}, false
	}
	return certificates, true
}

func buildSummary(courses []dto.CourseSummary) dto.DashboardSummary {
	summary := dto.DashboardSummary{EnrolledCourses: len(courses)}
	progressTotal := 0

	for _, course := range courses {
		switch models.EnrollmentStatus(course.Status) {
		case models.EnrollmentCompleted:
			summary.CompletedCourses++
		case models.EnrollmentInProgress:
			summary.InProgressCourses++
		default:
			summary.NotStartedCourses++
		}

		summary.TotalLessons += course.TotalLessons
		summary.CompletedLessons += course.CompletedLessons
		summary.TotalQuizzes += course.TotalQuizzes
		summary.CompletedQuizzes += course.CompletedQuizzes
		summary.PassedQuizzes += course.PassedQuizzes
		progressTotal += course.Progress
		summary.LastAccessed = latest(summary.LastAccessed, course.LastAccessed)
	}

	if len(courses) > 0 {
		summary.AverageProgress = float64(progressTotal) / float64(len(courses))
	}
	return summary
}

func emptyDashboard() dto.StudentDashboardResponse {
	return dto.StudentDashboardResponse{
		Courses:      []dto.CourseSummary{},
		Certificates: []dto.CertificateResponse{},
	}
}

func latest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}
