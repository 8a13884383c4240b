package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// Migrate creates or updates the learning schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Lesson{},
		&models.Quiz{},
		&models.Enrollment{},
		&models.LessonCompletion{},
		&models.QuizAttempt{},
		&models.Certificate{},
		&models.ActivityLog{},
	)
}
