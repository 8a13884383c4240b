package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/database"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

type harness struct {
	db    *gorm.DB
	mini  *miniredis.Miniredis
	redis *redis.Client

	tx           repository.Transactor
	students     repository.StudentRepository
	courses      repository.CourseRepository
	lessons      repository.LessonRepository
	quizzes      repository.QuizRepository
	enrollments  repository.EnrollmentRepository
	completions  repository.LessonCompletionRepository
	attempts     repository.QuizAttemptRepository
	certRepo     repository.CertificateRepository
	activityRepo repository.ActivityLogRepository

	activity     ActivityService
	certificates CertificateService
	completion   CompletionService
	learning     LearningService
	enrollment   EnrollmentService
	content      ContentService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), database.GormConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	h := &harness{
		db:    newTestDB(t),
		mini:  mini,
		redis: redis.NewClient(&redis.Options{Addr: mini.Addr()}),
	}
	t.Cleanup(func() { _ = h.redis.Close() })

	h.tx = repository.NewTransactor(h.db)
	h.students = repository.NewStudentRepository(h.db)
	h.courses = repository.NewCourseRepository(h.db)
	h.lessons = repository.NewLessonRepository(h.db)
	h.quizzes = repository.NewQuizRepository(h.db)
	h.enrollments = repository.NewEnrollmentRepository(h.db)
	h.completions = repository.NewLessonCompletionRepository(h.db)
	h.attempts = repository.NewQuizAttemptRepository(h.db)
	h.certRepo = repository.NewCertificateRepository(h.db)
	h.activityRepo = repository.NewActivityLogRepository(h.db)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	h.activity = NewActivityService(h.activityRepo, logger)
	h.certificates = NewCertificateService(h.tx, h.certRepo, h.students, h.courses, logger)
	h.completion = h.completionWith(CompletionDependencies{})
	h.learning = NewLearningService(h.lessons, h.quizzes, h.enrollments, h.completions, h.attempts, h.completion, h.redis, validate, logger)
	h.enrollment = NewEnrollmentService(h.enrollments, h.courses, h.students, h.completion, h.redis, logger)
	h.content = NewContentService(h.courses, h.lessons, h.quizzes, validate, logger)
	return h
}

// completionWith builds a completion service over the harness, letting a test swap collaborators.
func (h *harness) completionWith(overrides CompletionDependencies) CompletionService {
	deps := CompletionDependencies{
		Transactor:   h.tx,
		Enrollments:  h.enrollments,
		Lessons:      h.lessons,
		Quizzes:      h.quizzes,
		Completions:  h.completions,
		Attempts:     h.attempts,
		Certificates: h.certificates,
		Activity:     h.activity,
		Events:       NewProgressEventPublisher(h.redis, nil, "gema:courses", zerolog.Nop()),
		Cache:        h.redis,
	}
	if overrides.Lessons != nil {
		deps.Lessons = overrides.Lessons
	}
	if overrides.Completions != nil {
		deps.Completions = overrides.Completions
	}
	if overrides.Certificates != nil {
		deps.Certificates = overrides.Certificates
	}
	if overrides.Events != nil {
		deps.Events = overrides.Events
	}
	return NewCompletionService(deps, zerolog.Nop())
}

func (h *harness) student(t *testing.T, name string) models.Student {
	t.Helper()
	student := models.Student{Name: name, Email: strings.ToLower(name) + "@example.com", Role: models.RoleStudent}
	require.NoError(t, h.db.Create(&student).Error)
	return student
}

// course creates a published course with the given number of lessons and quizzes.
func (h *harness) course(t *testing.T, title string, lessons, quizzes int) (models.Course, []models.Lesson, []models.Quiz) {
	t.Helper()
	course := models.Course{Title: title, Published: true, InstructorID: 99}
	require.NoError(t, h.db.Create(&course).Error)

	created := make([]models.Lesson, 0, lessons)
	for i := 1; i <= lessons; i++ {
		lesson := models.Lesson{CourseID: course.ID, Title: fmt.Sprintf("%s lesson %d", title, i), Order: i}
		require.NoError(t, h.db.Create(&lesson).Error)
		created = append(created, lesson)
	}

	createdQuizzes := make([]models.Quiz, 0, quizzes)
	for i := 1; i <= quizzes; i++ {
		quiz := models.Quiz{CourseID: course.ID, Title: fmt.Sprintf("%s quiz %d", title, i), PassingScore: 70}
		require.NoError(t, h.db.Create(&quiz).Error)
		createdQuizzes = append(createdQuizzes, quiz)
	}
	return course, created, createdQuizzes
}

func (h *harness) enroll(t *testing.T, studentID, courseID uint) {
	t.Helper()
	_, err := h.enrollment.Enroll(context.Background(), studentID, courseID)
	require.NoError(t, err)
}

func (h *harness) enrollmentOf(t *testing.T, studentID, courseID uint) models.Enrollment {
	t.Helper()
	enrollment, err := h.enrollments.Get(context.Background(), studentID, courseID)
	require.NoError(t, err)
	return enrollment
}

func (h *harness) certificateCount(t *testing.T, studentID, courseID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.Certificate{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error)
	return count
}

func intPtr(v int) *int {
	return &v
}

func ptrUint(v uint) *uint {
	return &v
}
