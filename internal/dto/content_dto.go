package dto

import (
	"time"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// CourseCreateRequest captures a new course authored by an instructor.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Published   bool   `json:"published"`
}

// LessonCreateRequest appends a lesson to a course. A nil Order places it last.
type LessonCreateRequest struct {
	Title           string `json:"title" validate:"required,min=3,max=255"`
	Content         string `json:"content" validate:"omitempty,max=100000"`
	Order           *int   `json:"order" validate:"omitempty,min=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0,max=1440"`
}

// QuizCreateRequest adds a quiz to a course.
type QuizCreateRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=255"`
	PassingScore *int   `json:"passing_score" validate:"required,min=0,max=100"`
}

// LessonResponse serialises a lesson for authors.
type LessonResponse struct {
	ID              uint      `json:"id"`
	CourseID        uint      `json:"course_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Order           int       `json:"order"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuizResponse serialises a quiz for authors.
type QuizResponse struct {
	ID           uint      `json:"id"`
	CourseID     uint      `json:"course_id"`
	Title        string    `json:"title"`
	PassingScore int       `json:"passing_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// CourseResponse serialises a course and its content.
type CourseResponse struct {
	ID           uint             `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	InstructorID uint             `json:"instructor_id"`
	Published    bool             `json:"published"`
	Lessons      []LessonResponse `json:"lessons"`
	Quizzes      []QuizResponse   `json:"quizzes"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewLessonResponse converts a lesson model.
func NewLessonResponse(lesson models.Lesson) LessonResponse {
	return LessonResponse{
		ID:              lesson.ID,
		CourseID:        lesson.CourseID,
		Title:           lesson.Title,
		Content:         lesson.Content,
		Order:           lesson.Order,
		DurationMinutes: lesson.DurationMinutes,
		CreatedAt:       lesson.CreatedAt,
	}
}

// NewQuizResponse converts a quiz model.
func NewQuizResponse(quiz models.Quiz) QuizResponse {
	return QuizResponse{
		ID:           quiz.ID,
		CourseID:     quiz.CourseID,
		Title:        quiz.Title,
		PassingScore: quiz.PassingScore,
		CreatedAt:    quiz.CreatedAt,
	}
}

// NewCourseResponse converts a course and whatever content was preloaded.
func NewCourseResponse(course models.Course) CourseResponse {
	lessons := make([]LessonResponse, 0, len(course.Lessons))
	for _, lesson := range course.Lessons {
		lessons = append(lessons, NewLessonResponse(lesson))
	}
	quizzes := make([]QuizResponse, 0, len(course.Quizzes))
	for _, quiz := range course.Quizzes {
		quizzes = append(quizzes, NewQuizResponse(quiz))
	}

	return CourseResponse{
		ID:           course.ID,
		Title:        course.Title,
		Description:  course.Description,
		InstructorID: course.InstructorID,
		Published:    course.Published,
		Lessons:      lessons,
		Quizzes:      quizzes,
		CreatedAt:    course.CreatedAt,
		UpdatedAt:    course.UpdatedAt,
	}
}
