package models

import "time"

const (
	// RoleStudent identifies learners.
	RoleStudent = "student"
	// RoleInstructor identifies course authors.
	RoleInstructor = "instructor"
	// RoleAdmin identifies platform administrators.
	RoleAdmin = "admin"
)

// Student represents a platform user. Instructors and admins share the table.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
