package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

// CourseProgressService serves the per-course reads of an enrolled student.
type CourseProgressService interface {
	GetCourseProgress(ctx context.Context, studentID, courseID uint) (dto.CourseProgressResponse, error)
	ContinueLearning(ctx context.Context, studentID uint) (dto.ContinueLearningResponse, error)
}

type courseProgressService struct {
	courses      repository.CourseRepository
	enrollments  repository.EnrollmentRepository
	certificates repository.CertificateRepository
	completion   CompletionService
	logger       zerolog.Logger
	now          func() time.Time
}

// NewCourseProgressService constructs the course progress reader.
func NewCourseProgressService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, certificates repository.CertificateRepository, completion CompletionService, logger zerolog.Logger) CourseProgressService {
	return &courseProgressService{
		courses:      courses,
		enrollments:  enrollments,
		certificates: certificates,
		completion:   completion,
		logger:       logger.With().Str("component", "course_progress_service").Logger(),
		now:          time.Now,
	}
}

func (s *courseProgressService) GetCourseProgress(ctx context.Context, studentID, courseID uint) (dto.CourseProgressResponse, error) {
	course, err := s.courses.GetWithContent(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseProgressResponse{}, ErrCourseNotFound
		}
		return dto.CourseProgressResponse{}, err
	}

	enrollment, err := s.enrollments.Get(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseProgressResponse{}, ErrEnrollmentNotFound
		}
		return dto.CourseProgressResponse{}, err
	}

	outcome := s.completion.Recheck(ctx, studentID, courseID)
	if !outcome.Degraded && !outcome.NoEnrollment {
		enrollment = outcome.Enrollment
	}

	now := s.now().UTC()
	if err := s.enrollments.TouchLastAccessed(ctx, enrollment.ID, now); err != nil {
		s.logger.Warn().Err(err).Uint("enrollment_id", enrollment.ID).Msg("failed to update last accessed")
	} else {
		enrollment.LastAccessed = &now
	}

	response := dto.CourseProgressResponse{
		CourseID:     course.ID,
		Title:        course.Title,
		Description:  course.Description,
		Status:       string(enrollment.Status),
		EnrolledAt:   enrollment.EnrolledAt,
		StartedAt:    enrollment.StartedAt,
		CompletedAt:  enrollment.CompletedAt,
		LastAccessed: enrollment.LastAccessed,
	}

	if outcome.Degraded {
		response.Lessons = unprogressedLessons(course.Lessons)
		response.Quizzes = unprogressedQuizzes(course.Quizzes)
	} else {
		response.Stats = dto.NewProgressStats(outcome.Result)
		response.NextLesson = dto.NewLessonRef(outcome.Result.NextLesson)
		response.Lessons = dto.NewLessonProgressItems(outcome.Result)
		response.Quizzes = dto.NewQuizProgressItems(outcome.Result)
	}

	if certificate, err := s.certificates.Get(ctx, studentID, courseID); err == nil {
		certificate.Course = course
		issued := dto.NewCertificateResponse(certificate)
		response.Certificate = &issued
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Uint("course_id", courseID).Msg("failed to load certificate")
	}

	return response, nil
}

// ContinueLearning picks the most recently accessed enrollment that is not completed. A nil target
// means there is nothing to continue.
func (s *courseProgressService) ContinueLearning(ctx context.Context, studentID uint) (dto.ContinueLearningResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to list enrollments for continue learning")
		return dto.ContinueLearningResponse{}, nil
	}

	candidates := make([]models.Enrollment, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if !enrollment.IsCompleted() {
			candidates = append(candidates, enrollment)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return recency(candidates[i]).After(recency(candidates[j]))
	})

	for _, candidate := range candidates {
		outcome := s.completion.Recheck(ctx, studentID, candidate.CourseID)
		if outcome.NoEnrollment {
			continue
		}

		target := &dto.ContinueLearningTarget{
			CourseID:     candidate.CourseID,
			CourseTitle:  candidate.Course.Title,
			Status:       string(candidate.Status),
			LastAccessed: candidate.LastAccessed,
		}
		if !outcome.Degraded {
			if outcome.Enrollment.IsCompleted() {
				continue
			}
			target.Status = string(outcome.Enrollment.Status)
			target.Progress = outcome.Result.Progress
			target.NextLesson = dto.NewLessonRef(outcome.Result.NextLesson)
		}
		return dto.ContinueLearningResponse{Target: target}, nil
	}

	return dto.ContinueLearningResponse{}, nil
}

func recency(enrollment models.Enrollment) time.Time {
	if enrollment.LastAccessed != nil {
		return *enrollment.LastAccessed
	}
	return enrollment.EnrolledAt
}

func unprogressedLessons(lessons []models.Lesson) []dto.LessonProgressItem {
	items := make([]dto.LessonProgressItem, 0, len(lessons))
	for i := range lessons {
		items = append(items, dto.LessonProgressItem{LessonRef: *dto.NewLessonRef(&lessons[i])})
	}
	return items
}

func unprogressedQuizzes(quizzes []models.Quiz) []dto.QuizProgressItem {
	items := make([]dto.QuizProgressItem, 0, len(quizzes))
	for _, quiz := range quizzes {
		items = append(items, dto.QuizProgressItem{ID: quiz.ID, Title: quiz.Title, PassingScore: quiz.PassingScore})
	}
	return items
}
