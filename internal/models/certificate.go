package models

import "time"

// Certificate is issued once per (student, course) on course completion.
type Certificate struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	StudentID        uint      `gorm:"not null;uniqueIndex:idx_certificates_student_course" json:"student_id"`
	CourseID         uint      `gorm:"not null;uniqueIndex:idx_certificates_student_course" json:"course_id"`
	VerificationCode string    `gorm:"size:64;not null;uniqueIndex" json:"verification_code"`
	GeneratedAt      time.Time `gorm:"not null" json:"generated_at"`
	Course           Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student          Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
