package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// LessonCompletionRepository stores lesson completion facts.
type LessonCompletionRepository interface {
	Create(ctx context.Context, completion *models.LessonCompletion) error
	ListByCourse(ctx context.Context, studentID, courseID uint) ([]models.LessonCompletion, error)
	ListByLessons(ctx context.Context, studentID uint, lessonIDs []uint) ([]models.LessonCompletion, error)
}

// QuizAttemptRepository stores quiz attempt facts.
type QuizAttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	ListByCourse(ctx context.Context, studentID, courseID uint) ([]models.QuizAttempt, error)
	ListByQuizzes(ctx context.Context, studentID uint, quizIDs []uint) ([]models.QuizAttempt, error)
}

type lessonCompletionRepository struct {
	db *gorm.DB
}

// NewLessonCompletionRepository constructs the completion repository.
func NewLessonCompletionRepository(db *gorm.DB) LessonCompletionRepository {
	return &lessonCompletionRepository{db: db}
}

// Create inserts a completion. A second completion for the same (student, lesson) returns ErrDuplicate.
func (r *lessonCompletionRepository) Create(ctx context.Context, completion *models.LessonCompletion) error {
	return translateCreateError(conn(ctx, r.db).Omit(clause.Associations).Create(completion).Error)
}

func (r *lessonCompletionRepository) ListByCourse(ctx context.Context, studentID, courseID uint) ([]models.LessonCompletion, error) {
	var completions []models.LessonCompletion
	err := conn(ctx, r.db).
		Model(&models.LessonCompletion{}).
		Select("lesson_completions.*").
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Where("lesson_completions.student_id = ? AND lessons.course_id = ?", studentID, courseID).
		Order("lesson_completions.completed_at ASC").
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	return completions, nil
}

func (r *lessonCompletionRepository) ListByLessons(ctx context.Context, studentID uint, lessonIDs []uint) ([]models.LessonCompletion, error) {
	if len(lessonIDs) == 0 {
		return []models.LessonCompletion{}, nil
	}

	var completions []models.LessonCompletion
	if err := conn(ctx, r.db).
		Where("student_id = ? AND lesson_id IN ?", studentID, lessonIDs).
		Order("completed_at ASC").
		Find(&completions).Error; err != nil {
		return nil, err
	}
	return completions, nil
}

type quizAttemptRepository struct {
	db *gorm.DB
}

// NewQuizAttemptRepository constructs the attempt repository.
func NewQuizAttemptRepository(db *gorm.DB) QuizAttemptRepository {
	return &quizAttemptRepository{db: db}
}

func (r *quizAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(attempt).Error
}

func (r *quizAttemptRepository) ListByCourse(ctx context.Context, studentID, courseID uint) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := conn(ctx, r.db).
		Model(&models.QuizAttempt{}).
		Select("quiz_attempts.*").
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.student_id = ? AND quizzes.course_id = ?", studentID, courseID).
		Order("quiz_attempts.attempt_date ASC, quiz_attempts.id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *quizAttemptRepository) ListByQuizzes(ctx context.Context, studentID uint, quizIDs []uint) ([]models.QuizAttempt, error) {
	if len(quizIDs) == 0 {
		return []models.QuizAttempt{}, nil
	}

	var attempts []models.QuizAttempt
	if err := conn(ctx, r.db).
		Where("student_id = ? AND quiz_id IN ?", studentID, quizIDs).
		Order("attempt_date ASC, id ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
