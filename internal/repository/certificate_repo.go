package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository interface {
	Get(ctx context.Context, studentID, courseID uint) (models.Certificate, error)
	GetByCode(ctx context.Context, code string) (models.Certificate, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error)
	Create(ctx context.Context, certificate *models.Certificate) error
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository constructs a certificate repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) Get(ctx context.Context, studentID, courseID uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := conn(ctx, r.db).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) GetByCode(ctx context.Context, code string) (models.Certificate, error) {
	var certificate models.Certificate
	if err := conn(ctx, r.db).
		Preload("Course").
		Preload("Student").
		Where("verification_code = ?", code).
		First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	if err := conn(ctx, r.db).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("generated_at DESC").
		Find(&certificates).Error; err != nil {
		return nil, err
	}
	return certificates, nil
}

// Create inserts a certificate; a second certificate for the same pair returns ErrDuplicate.
func (r *certificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	return translateCreateError(conn(ctx, r.db).Omit(clause.Associations).Create(certificate).Error)
}
