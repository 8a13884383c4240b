package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

var (
	// ErrCourseNotFound indicates the course does not exist or is not visible to students.
	ErrCourseNotFound = errors.New("course not found")
	// ErrStudentNotFound indicates the student account does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrAlreadyEnrolled is returned when enrolling twice in the same course.
	ErrAlreadyEnrolled = errors.New("already enrolled in course")
)

// EnrollmentService manages a student's enrollments.
type EnrollmentService interface {
	Enroll(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error)
	Start(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error)
	List(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	students    repository.StudentRepository
	completion  CompletionService
	cache       *redis.Client
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, students repository.StudentRepository, completion CompletionService, cache *redis.Client, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		students:    students,
		completion:  completion,
		cache:       cache,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error) {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if !exists {
		return dto.EnrollmentResponse{}, ErrStudentNotFound
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if !course.Published {
		return dto.EnrollmentResponse{}, ErrCourseNotFound
	}

	enrollment := models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     models.EnrollmentNotStarted,
		EnrolledAt: s.now().UTC(),
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		return dto.EnrollmentResponse{}, fmt.Errorf("create enrollment: %w", err)
	}
	enrollment.Course = course

	invalidateDashboard(ctx, s.cache, s.logger, studentID)
	s.logger.Info().Uint("student_id", studentID).Uint("course_id", courseID).Msg("student enrolled")

	return dto.NewEnrollmentResponse(enrollment), nil
}

// Start performs the explicit start, then re-evaluates so a course without content completes at once.
func (s *enrollmentService) Start(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.completion.Start(ctx, studentID, courseID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	outcome := s.completion.Recheck(ctx, studentID, courseID)
	if !outcome.Degraded && !outcome.NoEnrollment {
		enrollment = outcome.Enrollment
	}

	stored, err := s.enrollments.Get(ctx, studentID, courseID)
	if err == nil {
		enrollment.Course = stored.Course
	}

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) List(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}
	return responses, nil
}
