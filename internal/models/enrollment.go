package models

import "time"

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	// EnrollmentNotStarted is the state right after enrolling.
	EnrollmentNotStarted EnrollmentStatus = "not_started"
	// EnrollmentInProgress means the student has started the course.
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	// EnrollmentCompleted means every completion requirement is met.
	EnrollmentCompleted EnrollmentStatus = "completed"
)

// Enrollment links a student to a course.
type Enrollment struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	StudentID    uint             `gorm:"not null;uniqueIndex:idx_enrollments_student_course" json:"student_id"`
	CourseID     uint             `gorm:"not null;uniqueIndex:idx_enrollments_student_course;index" json:"course_id"`
	Status       EnrollmentStatus `gorm:"size:32;not null;default:not_started;index" json:"status"`
	EnrolledAt   time.Time        `gorm:"not null" json:"enrolled_at"`
	StartedAt    *time.Time       `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at"`
	LastAccessed *time.Time       `json:"last_accessed"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Course       Course           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	Student      Student          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsCompleted reports whether the enrollment reached the terminal status.
func (e Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentCompleted
}
