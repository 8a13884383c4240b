package dto

import (
	"time"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// EnrollmentResponse serialises an enrollment for its student.
type EnrollmentResponse struct {
	ID           uint       `json:"id"`
	CourseID     uint       `json:"course_id"`
	CourseTitle  string     `json:"course_title"`
	Status       string     `json:"status"`
	EnrolledAt   time.Time  `json:"enrolled_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// NewEnrollmentResponse converts a model. CourseTitle is empty unless Course was preloaded.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:           enrollment.ID,
		CourseID:     enrollment.CourseID,
		CourseTitle:  enrollment.Course.Title,
		Status:       string(enrollment.Status),
		EnrolledAt:   enrollment.EnrolledAt,
		StartedAt:    enrollment.StartedAt,
		CompletedAt:  enrollment.CompletedAt,
		LastAccessed: enrollment.LastAccessed,
	}
}
