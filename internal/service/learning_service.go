package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

var (
	// ErrLessonNotFound indicates the lesson does not exist.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotEnrolled is returned when acting on a course the student is not enrolled in.
	ErrNotEnrolled = errors.New("student is not enrolled in course")
	// ErrLessonAlreadyCompleted reports a repeated completion of the same lesson.
	ErrLessonAlreadyCompleted = errors.New("lesson already completed")
)

// LearningService records lesson completions and quiz attempts and re-evaluates the enrollment.
type LearningService interface {
	CompleteLesson(ctx context.Context, studentID, lessonID uint) (dto.LessonCompletionResponse, error)
	SubmitQuizAttempt(ctx context.Context, studentID, quizID uint, req dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error)
}

type learningService struct {
	lessons     repository.LessonRepository
	quizzes     repository.QuizRepository
	enrollments repository.EnrollmentRepository
	completions repository.LessonCompletionRepository
	attempts    repository.QuizAttemptRepository
	completion  CompletionService
	cache       *redis.Client
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLearningService constructs the learning action service.
func NewLearningService(
	lessons repository.LessonRepository,
	quizzes repository.QuizRepository,
	enrollments repository.EnrollmentRepository,
	completions repository.LessonCompletionRepository,
	attempts repository.QuizAttemptRepository,
	completion CompletionService,
	cache *redis.Client,
	validate *validator.Validate,
	logger zerolog.Logger,
) LearningService {
	return &learningService{
		lessons:     lessons,
		quizzes:     quizzes,
		enrollments: enrollments,
		completions: completions,
		attempts:    attempts,
		completion:  completion,
		cache:       cache,
		validator:   validate,
		logger:      logger.With().Str("component", "learning_service").Logger(),
		now:         time.Now,
	}
}

func (s *learningService) CompleteLesson(ctx context.Context, studentID, lessonID uint) (dto.LessonCompletionResponse, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonCompletionResponse{}, ErrLessonNotFound
		}
		return dto.LessonCompletionResponse{}, err
	}

	enrollment, err := s.requireEnrollment(ctx, studentID, lesson.CourseID)
	if err != nil {
		return dto.LessonCompletionResponse{}, err
	}

	completion := models.LessonCompletion{
		StudentID:   studentID,
		LessonID:    lesson.ID,
		CompletedAt: s.now().UTC(),
	}
	if err := s.completions.Create(ctx, &completion); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.LessonCompletionResponse{}, ErrLessonAlreadyCompleted
		}
		return dto.LessonCompletionResponse{}, fmt.Errorf("record lesson completion: %w", err)
	}

	s.logger.Debug().Uint("student_id", studentID).Uint("lesson_id", lesson.ID).Msg("lesson completed")

	return dto.LessonCompletionResponse{
		LessonID:    lesson.ID,
		CourseID:    lesson.CourseID,
		CompletedAt: completion.CompletedAt,
		Enrollment:  s.reevaluate(ctx, enrollment),
	}, nil
}

func (s *learningService) SubmitQuizAttempt(ctx context.Context, studentID, quizID uint, req dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizAttemptResponse{}, ErrQuizNotFound
		}
		return dto.QuizAttemptResponse{}, err
	}

	enrollment, err := s.requireEnrollment(ctx, studentID, quiz.CourseID)
	if err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	score := *req.Score
	attempt := models.QuizAttempt{
		StudentID:   studentID,
		QuizID:      quiz.ID,
		Score:       score,
		Passed:      quiz.Passes(score),
		AttemptDate: s.now().UTC(),
	}
	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return dto.QuizAttemptResponse{}, fmt.Errorf("record quiz attempt: %w", err)
	}

	return dto.QuizAttemptResponse{
		AttemptID:   attempt.ID,
		QuizID:      quiz.ID,
		CourseID:    quiz.CourseID,
		Score:       attempt.Score,
		Passed:      attempt.Passed,
		AttemptDate: attempt.AttemptDate,
		Enrollment:  s.reevaluate(ctx, enrollment),
	}, nil
}

func (s *learningService) requireEnrollment(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	enrollment, err := s.enrollments.Get(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Enrollment{}, ErrNotEnrolled
		}
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// reevaluate runs the state machine after the fact has been committed. A failed evaluation keeps
// the recorded fact and reports the last known status.
func (s *learningService) reevaluate(ctx context.Context, enrollment models.Enrollment) dto.CompletionOutcomeResponse {
	// Progress moved even when the status did not.
	invalidateDashboard(ctx, s.cache, s.logger, enrollment.StudentID)

	outcome := s.completion.Recheck(ctx, enrollment.StudentID, enrollment.CourseID)
	status := outcome.Enrollment.Status
	if outcome.Degraded || outcome.NoEnrollment {
		status = enrollment.Status
	}
	return dto.NewCompletionOutcomeResponse(status, outcome.Decision, outcome.Result, outcome.CertificateIssued, outcome.Degraded)
}
