package dto

import (
	"time"

	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/progress"
)

// ProgressStats exposes the calculator figures for one enrollment.
type ProgressStats struct {
	TotalLessons     int     `json:"total_lessons"`
	CompletedLessons int     `json:"completed_lessons"`
	TotalQuizzes     int     `json:"total_quizzes"`
	CompletedQuizzes int     `json:"completed_quizzes"`
	PassedQuizzes    int     `json:"passed_quizzes"`
	LessonProgress   float64 `json:"lesson_progress"`
	QuizProgress     float64 `json:"quiz_progress"`
	Progress         int     `json:"progress"`
}

// LessonRef identifies a lesson without its content.
type LessonRef struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Order           int    `json:"order"`
	DurationMinutes int    `json:"duration_minutes"`
}

// LessonProgressItem is a lesson with the student's completion state.
type LessonProgressItem struct {
	LessonRef
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// QuizProgressItem is a quiz with the student's latest attempt.
type QuizProgressItem struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	PassingScore    int        `json:"passing_score"`
	Attempted       bool       `json:"attempted"`
	Passed          bool       `json:"passed"`
	AttemptCount    int        `json:"attempt_count"`
	LatestScore     *int       `json:"latest_score"`
	LatestAttemptAt *time.Time `json:"latest_attempt_at"`
}

// CourseProgressResponse is the course detail view for an enrolled student.
type CourseProgressResponse struct {
	CourseID     uint                 `json:"course_id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       string               `json:"status"`
	Stats        ProgressStats        `json:"stats"`
	NextLesson   *LessonRef           `json:"next_lesson"`
	Lessons      []LessonProgressItem `json:"lessons"`
	Quizzes      []QuizProgressItem   `json:"quizzes"`
	EnrolledAt   time.Time            `json:"enrolled_at"`
	StartedAt    *time.Time           `json:"started_at"`
	CompletedAt  *time.Time           `json:"completed_at"`
	LastAccessed *time.Time           `json:"last_accessed"`
	Certificate  *CertificateResponse `json:"certificate"`
}

// ContinueLearningTarget points the student at the next thing to do.
type ContinueLearningTarget struct {
	CourseID     uint       `json:"course_id"`
	CourseTitle  string     `json:"course_title"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	NextLesson   *LessonRef `json:"next_lesson"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// ContinueLearningResponse wraps an optional target; Target is nil when nothing is left to continue.
type ContinueLearningResponse struct {
	Target *ContinueLearningTarget `json:"target"`
}

// CompletionOutcomeResponse summarises a state machine run after a learning action.
type CompletionOutcomeResponse struct {
	Status            string        `json:"status"`
	Transition        string        `json:"transition,omitempty"`
	Stats             ProgressStats `json:"stats"`
	NextLesson        *LessonRef    `json:"next_lesson"`
	CertificateIssued bool          `json:"certificate_issued"`
	Degraded          bool          `json:"degraded"`
}

// NewProgressStats copies calculator output into its wire form.
func NewProgressStats(result progress.Result) ProgressStats {
	return ProgressStats{
		TotalLessons:     result.TotalLessons,
		CompletedLessons: result.CompletedLessons,
		TotalQuizzes:     result.TotalQuizzes,
		CompletedQuizzes: result.CompletedQuizzes,
		PassedQuizzes:    result.PassedQuizzes,
		LessonProgress:   result.LessonProgress,
		QuizProgress:     result.QuizProgress,
		Progress:         result.Progress,
	}
}

// NewLessonRef returns nil for a nil lesson.
func NewLessonRef(lesson *models.Lesson) *LessonRef {
	if lesson == nil {
		return nil
	}
	return &LessonRef{
		ID:              lesson.ID,
		Title:           lesson.Title,
		Order:           lesson.Order,
		DurationMinutes: lesson.DurationMinutes,
	}
}

// NewLessonProgressItems lists every lesson in calculator order.
func NewLessonProgressItems(result progress.Result) []LessonProgressItem {
	items := make([]LessonProgressItem, 0, len(result.Lessons))
	for i := range result.Lessons {
		lesson := result.Lessons[i]
		item := LessonProgressItem{LessonRef: *NewLessonRef(&lesson)}
		if at, ok := result.LessonCompletedAt(lesson.ID); ok {
			completedAt := at
			item.Completed = true
			item.CompletedAt = &completedAt
		}
		items = append(items, item)
	}
	return items
}

// NewQuizProgressItems lists every quiz with its latest attempt.
func NewQuizProgressItems(result progress.Result) []QuizProgressItem {
	items := make([]QuizProgressItem, 0, len(result.Quizzes))
	for _, state := range result.Quizzes {
		item := QuizProgressItem{
			ID:           state.Quiz.ID,
			Title:        state.Quiz.Title,
			PassingScore: state.Quiz.PassingScore,
			Attempted:    state.Attempted,
			Passed:       state.Passed,
			AttemptCount: state.AttemptCount,
		}
		if state.LatestAttempt != nil {
			score := state.LatestAttempt.Score
			at := state.LatestAttempt.AttemptDate
			item.LatestScore = &score
			item.LatestAttemptAt = &at
		}
		items = append(items, item)
	}
	return items
}

// NewCompletionOutcomeResponse builds the learning-action summary.
func NewCompletionOutcomeResponse(status models.EnrollmentStatus, decision progress.Decision, result progress.Result, certificateIssued, degraded bool) CompletionOutcomeResponse {
	return CompletionOutcomeResponse{
		Status:            string(status),
		Transition:        string(decision.Transition),
		Stats:             NewProgressStats(result),
		NextLesson:        NewLessonRef(result.NextLesson),
		CertificateIssued: certificateIssued,
		Degraded:          degraded,
	}
}
