package dto

import (
	"time"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// CertificateResponse is a certificate as shown to its owner.
type CertificateResponse struct {
	ID               uint      `json:"id"`
	CourseID         uint      `json:"course_id"`
	CourseTitle      string    `json:"course_title"`
	VerificationCode string    `json:"verification_code"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// CertificateVerificationResponse is the public view returned by code lookup.
type CertificateVerificationResponse struct {
	VerificationCode string    `json:"verification_code"`
	StudentName      string    `json:"student_name"`
	CourseTitle      string    `json:"course_title"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// NewCertificateResponse converts a model. CourseTitle is empty unless Course was preloaded.
func NewCertificateResponse(certificate models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:               certificate.ID,
		CourseID:         certificate.CourseID,
		CourseTitle:      certificate.Course.Title,
		VerificationCode: certificate.VerificationCode,
		GeneratedAt:      certificate.GeneratedAt,
	}
}

// NewCertificateVerificationResponse expects Course and Student to be preloaded.
func NewCertificateVerificationResponse(certificate models.Certificate) CertificateVerificationResponse {
	return CertificateVerificationResponse{
		VerificationCode: certificate.VerificationCode,
		StudentName:      certificate.Student.Name,
		CourseTitle:      certificate.Course.Title,
		GeneratedAt:      certificate.GeneratedAt,
	}
}
