package dto

import "time"

// QuizAttemptRequest is the body of a quiz submission. Score is a pointer so zero is accepted.
type QuizAttemptRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=100"`
}

// LessonCompletionResponse is returned after a lesson is marked complete.
type LessonCompletionResponse struct {
	LessonID    uint                      `json:"lesson_id"`
	CourseID    uint                      `json:"course_id"`
	CompletedAt time.Time                 `json:"completed_at"`
	Enrollment  CompletionOutcomeResponse `json:"enrollment"`
}

// QuizAttemptResponse is returned after a quiz attempt is recorded.
type QuizAttemptResponse struct {
	AttemptID   uint                      `json:"attempt_id"`
	QuizID      uint                      `json:"quiz_id"`
	CourseID    uint                      `json:"course_id"`
	Score       int                       `json:"score"`
	Passed      bool                      `json:"passed"`
	AttemptDate time.Time                 `json:"attempt_date"`
	Enrollment  CompletionOutcomeResponse `json:"enrollment"`
}
