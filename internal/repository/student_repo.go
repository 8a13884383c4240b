package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// StudentRepository provides access to user records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := conn(ctx, r.db).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Student{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
