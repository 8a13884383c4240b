package models

import "time"

// LessonCompletion is the fact that a student finished a lesson. At most one per (student, lesson).
type LessonCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_lesson_completions_student_lesson" json:"student_id"`
	LessonID    uint      `gorm:"not null;uniqueIndex:idx_lesson_completions_student_lesson;index" json:"lesson_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
	Lesson      Lesson    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student     Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// QuizAttempt records one scored submission. Only the latest attempt per quiz counts.
type QuizAttempt struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"not null;index:idx_quiz_attempts_student_quiz" json:"student_id"`
	QuizID      uint      `gorm:"not null;index:idx_quiz_attempts_student_quiz" json:"quiz_id"`
	Score       int       `gorm:"not null" json:"score"`
	Passed      bool      `gorm:"not null" json:"passed"`
	AttemptDate time.Time `gorm:"not null" json:"attempt_date"`
	Quiz        Quiz      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student     Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
