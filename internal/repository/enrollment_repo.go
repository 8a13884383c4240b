package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// EnrollmentFilter narrows enrollment scans used by background reconciliation.
type EnrollmentFilter struct {
	Statuses []models.EnrollmentStatus
	AfterID  uint
	Limit    int
}

// EnrollmentRepository persists student enrollments.
type EnrollmentRepository interface {
	Get(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
	GetForUpdate(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	Scan(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateState(ctx context.Context, enrollment *models.Enrollment) error
	TouchLastAccessed(ctx context.Context, id uint, at time.Time) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Get(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := conn(ctx, r.db).
		Preload("Course").
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// GetForUpdate reads the enrollment with a row lock where the dialect supports it. It must be
// called inside WithinTransaction for the lock to be held until the write.
func (r *enrollmentRepository) GetForUpdate(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	query := conn(ctx, r.db)
	if supportsRowLocks(query) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var enrollment models.Enrollment
	if err := query.
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := conn(ctx, r.db).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC, id DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) Scan(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error) {
	query := conn(ctx, r.db).Model(&models.Enrollment{}).Where("id > ?", filter.AfterID)
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var enrollments []models.Enrollment
	if err := query.Order("id ASC").Limit(limit).Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return translateCreateError(conn(ctx, r.db).Omit(clause.Associations).Create(enrollment).Error)
}

// UpdateState writes the status and lifecycle timestamps. Nil timestamps are written as NULL.
func (r *enrollmentRepository) UpdateState(ctx context.Context, enrollment *models.Enrollment) error {
	result := conn(ctx, r.db).Model(&models.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"status":        enrollment.Status,
			"started_at":    enrollment.StartedAt,
			"completed_at":  enrollment.CompletedAt,
			"last_accessed": enrollment.LastAccessed,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepository) TouchLastAccessed(ctx context.Context, id uint, at time.Time) error {
	return conn(ctx, r.db).Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("last_accessed", at).Error
}
