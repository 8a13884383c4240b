package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

// ErrCourseForbidden is returned when an instructor edits a course they do not own.
var ErrCourseForbidden = errors.New("course belongs to another instructor")

// ContentActor identifies the author performing a content change.
type ContentActor struct {
	ID   uint
	Role string
}

func (a ContentActor) canEdit(course models.Course) bool {
	return strings.EqualFold(a.Role, models.RoleAdmin) || course.InstructorID == a.ID
}

// ContentService manages courses, lessons and quizzes for authors. Existing enrollments pick up
// content changes on their next recheck.
type ContentService interface {
	CreateCourse(ctx context.Context, actor ContentActor, req dto.CourseCreateRequest) (dto.CourseResponse, error)
	GetCourse(ctx context.Context, courseID uint) (dto.CourseResponse, error)
	ListCourses(ctx context.Context, actor ContentActor) ([]dto.CourseResponse, error)
	AddLesson(ctx context.Context, actor ContentActor, courseID uint, req dto.LessonCreateRequest) (dto.LessonResponse, error)
	AddQuiz(ctx context.Context, actor ContentActor, courseID uint, req dto.QuizCreateRequest) (dto.QuizResponse, error)
}

type contentService struct {
	courses   repository.CourseRepository
	lessons   repository.LessonRepository
	quizzes   repository.QuizRepository
	validator *validator.Validate
	strict    *bluemonday.Policy
	rich      *bluemonday.Policy
	logger    zerolog.Logger
}

// NewContentService constructs the content administration service.
func NewContentService(courses repository.CourseRepository, lessons repository.LessonRepository, quizzes repository.QuizRepository, validate *validator.Validate, logger zerolog.Logger) ContentService {
	return &contentService{
		courses:   courses,
		lessons:   lessons,
		quizzes:   quizzes,
		validator: validate,
		strict:    bluemonday.StrictPolicy(),
		rich:      bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "content_service").Logger(),
	}
}

func (s *contentService) CreateCourse(ctx context.Context, actor ContentActor, req dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:        s.cleanTitle(req.Title),
		Description:  strings.TrimSpace(s.rich.Sanitize(req.Description)),
		InstructorID: actor.ID,
		Published:    req.Published,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("instructor_id", actor.ID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *contentService) GetCourse(ctx context.Context, courseID uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetWithContent(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

// ListCourses returns every course for admins and the actor's own courses for instructors.
func (s *contentService) ListCourses(ctx context.Context, actor ContentActor) ([]dto.CourseResponse, error) {
	filter := repository.CourseFilter{}
	if !strings.EqualFold(actor.Role, models.RoleAdmin) {
		filter.InstructorID = &actor.ID
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course))
	}
	return responses, nil
}

func (s *contentService) AddLesson(ctx context.Context, actor ContentActor, courseID uint, req dto.LessonCreateRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LessonResponse{}, err
	}
	if _, err := s.editableCourse(ctx, actor, courseID); err != nil {
		return dto.LessonResponse{}, err
	}

	order := 0
	if req.Order != nil {
		order = *req.Order
	} else {
		existing, err := s.lessons.ListByCourse(ctx, courseID)
		if err != nil {
			return dto.LessonResponse{}, err
		}
		for _, lesson := range existing {
			if lesson.Order >= order {
				order = lesson.Order + 1
			}
		}
	}

	lesson := models.Lesson{
		CourseID:        courseID,
		Title:           s.cleanTitle(req.Title),
		Content:         strings.TrimSpace(s.rich.Sanitize(req.Content)),
		Order:           order,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	return dto.NewLessonResponse(lesson), nil
}

func (s *contentService) AddQuiz(ctx context.Context, actor ContentActor, courseID uint, req dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}
	if _, err := s.editableCourse(ctx, actor, courseID); err != nil {
		return dto.QuizResponse{}, err
	}

	quiz := models.Quiz{
		CourseID:     courseID,
		Title:        s.cleanTitle(req.Title),
		PassingScore: *req.PassingScore,
	}
	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz), nil
}

func (s *contentService) editableCourse(ctx context.Context, actor ContentActor, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	if !actor.canEdit(course) {
		return models.Course{}, ErrCourseForbidden
	}
	return course, nil
}

func (s *contentService) cleanTitle(title string) string {
	return strings.TrimSpace(s.strict.Sanitize(title))
}
