package models

import "time"

// Course groups ordered lessons and quizzes authored by an instructor.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	InstructorID uint      `gorm:"index" json:"instructor_id"`
	Published    bool      `gorm:"not null;default:false" json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Lessons      []Lesson  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"lessons,omitempty"`
	Quizzes      []Quiz    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"quizzes,omitempty"`
}

// Lesson is a single unit of course content. Order drives "next lesson" selection.
type Lesson struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CourseID        uint      `gorm:"not null;index" json:"course_id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Content         string    `gorm:"type:text" json:"content"`
	Order           int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	DurationMinutes int       `gorm:"not null;default:0" json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Quiz belongs to a course; attempts scoring at or above PassingScore pass.
type Quiz struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CourseID     uint      `gorm:"not null;index" json:"course_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	PassingScore int       `gorm:"not null" json:"passing_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Passes reports whether the score meets the quiz threshold.
func (q Quiz) Passes(score int) bool {
	return score >= q.PassingScore
}
