package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/models"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	PublishedOnly bool
	InstructorID  *uint
}

// CourseRepository provides access to courses and their content.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetWithContent(ctx context.Context, id uint) (models.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
}

// LessonRepository provides lesson reads and authoring.
type LessonRepository interface {
	GetByID(ctx context.Context, id uint) (models.Lesson, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
}

// QuizRepository provides quiz reads and authoring.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := conn(ctx, r.db).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) GetWithContent(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := conn(ctx, r.db).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Quizzes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&course, id).Error
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := conn(ctx, r.db).Model(&models.Course{})
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}
	if filter.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filter.InstructorID)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return conn(ctx, r.db).Create(course).Error
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository constructs a lesson repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := conn(ctx, r.db).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *lessonRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := conn(ctx, r.db).
		Where("course_id = ?", courseID).
		Order("sort_order ASC, id ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return conn(ctx, r.db).Create(lesson).Error
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository constructs a quiz repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := conn(ctx, r.db).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := conn(ctx, r.db).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return conn(ctx, r.db).Create(quiz).Error
}
