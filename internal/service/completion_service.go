package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/observability"
	"github.com/noah-isme/gema-course-api/internal/progress"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

var (
	// ErrEnrollmentNotFound indicates the student is not enrolled in the course.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrCourseAlreadyStarted is returned by an explicit start on an enrollment that left not_started.
	ErrCourseAlreadyStarted = errors.New("course already started")
)

const (
	recheckResultOK           = "ok"
	recheckResultDegraded     = "degraded"
	recheckResultNoEnrollment = "no_enrollment"
)

// Outcome is the result of one completion evaluation.
type Outcome struct {
	StudentID         uint
	CourseID          uint
	Enrollment        models.Enrollment
	Result            progress.Result
	Decision          progress.Decision
	Certificate       *models.Certificate
	CertificateIssued bool
	// NoEnrollment is set when there was nothing to evaluate.
	NoEnrollment bool
	// Degraded is set when evaluation failed and Result holds zero defaults.
	Degraded bool
}

// CompletionService owns enrollment status transitions.
type CompletionService interface {
	// Evaluate recomputes progress from the stored facts and applies any status transition in one
	// transaction. A transition into completed issues the certificate inside the same transaction.
	Evaluate(ctx context.Context, studentID, courseID uint) (Outcome, error)
	// Recheck wraps Evaluate for callers that must not fail: errors are logged and reported
	// through Outcome.Degraded, and a missing enrollment is a no-op.
	Recheck(ctx context.Context, studentID, courseID uint) Outcome
	// Start moves a not_started enrollment to in_progress without evaluating completion.
	Start(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
}

type completionService struct {
	tx           repository.Transactor
	enrollments  repository.EnrollmentRepository
	lessons      repository.LessonRepository
	quizzes      repository.QuizRepository
	completions  repository.LessonCompletionRepository
	attempts     repository.QuizAttemptRepository
	certificates CertificateService
	activity     ActivityRecorder
	events       ProgressEventPublisher
	cache        *redis.Client
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// CompletionDependencies groups the collaborators of the completion service.
type CompletionDependencies struct {
	Transactor   repository.Transactor
	Enrollments  repository.EnrollmentRepository
	Lessons      repository.LessonRepository
	Quizzes      repository.QuizRepository
	Completions  repository.LessonCompletionRepository
	Attempts     repository.QuizAttemptRepository
	Certificates CertificateService
	Activity     ActivityRecorder
	Events       ProgressEventPublisher
	Cache        *redis.Client
}

// NewCompletionService constructs the completion state machine.
func NewCompletionService(deps CompletionDependencies, logger zerolog.Logger) CompletionService {
	events := deps.Events
	if events == nil {
		events = noopProgressPublisher{}
	}

	return &completionService{
		tx:           deps.Transactor,
		enrollments:  deps.Enrollments,
		lessons:      deps.Lessons,
		quizzes:      deps.Quizzes,
		completions:  deps.Completions,
		attempts:     deps.Attempts,
		certificates: deps.Certificates,
		activity:     deps.Activity,
		events:       events,
		cache:        deps.Cache,
		logger:       logger.With().Str("component", "completion_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-course-api/internal/service/completion"),
		now:          time.Now,
	}
}

func (s *completionService) Evaluate(ctx context.Context, studentID, courseID uint) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "completion.evaluate", trace.WithAttributes(
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("course.id", int64(courseID)),
	))
	defer span.End()

	outcome := Outcome{StudentID: studentID, CourseID: courseID}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		enrollment, err := s.enrollments.GetForUpdate(ctx, studentID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("load enrollment: %w", err)
		}

		snapshot, err := s.loadSnapshot(ctx, studentID, courseID)
		if err != nil {
			return err
		}

		result := progress.Calculate(snapshot)
		decision := progress.Decide(enrollment.Status, result)
		outcome.Result = result
		outcome.Decision = decision
		outcome.Enrollment = enrollment

		if !decision.Changed() {
			return nil
		}

		applyDecision(&enrollment, decision, s.now().UTC())
		if err := s.enrollments.UpdateState(ctx, &enrollment); err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}
		outcome.Enrollment = enrollment
		s.recordTransition(ctx, enrollment, decision, result)

		if decision.Transition != progress.TransitionCompleted {
			return nil
		}

		// A failed issuance rolls the transition back so the next evaluation fires the edge again.
		certificate, created, err := s.certificates.Ensure(ctx, studentID, courseID)
		if err != nil {
			return fmt.Errorf("ensure certificate: %w", err)
		}
		outcome.Certificate = certificate
		outcome.CertificateIssued = created
		if created {
			s.recordCertificate(ctx, *certificate)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrEnrollmentNotFound) {
			outcome.NoEnrollment = true
		}
		return outcome, err
	}

	if outcome.Decision.Changed() {
		s.afterCommit(ctx, outcome)
	}

	return outcome, nil
}

func (s *completionService) Recheck(ctx context.Context, studentID, courseID uint) Outcome {
	outcome, err := s.Evaluate(ctx, studentID, courseID)
	switch {
	case err == nil:
		observability.ProgressRechecks().WithLabelValues(recheckResultOK).Inc()
		return outcome
	case errors.Is(err, ErrEnrollmentNotFound):
		observability.ProgressRechecks().WithLabelValues(recheckResultNoEnrollment).Inc()
		return Outcome{StudentID: studentID, CourseID: courseID, NoEnrollment: true}
	default:
		observability.ProgressRechecks().WithLabelValues(recheckResultDegraded).Inc()
		s.logger.Error().Err(err).
			Uint("student_id", studentID).
			Uint("course_id", courseID).
			Msg("completion recheck failed, returning defaults")
		return Outcome{StudentID: studentID, CourseID: courseID, Degraded: true}
	}
}

func (s *completionService) Start(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	var (
		enrollment models.Enrollment
		decision   progress.Decision
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.enrollments.GetForUpdate(ctx, studentID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("load enrollment: %w", err)
		}
		if current.Status != models.EnrollmentNotStarted {
			return ErrCourseAlreadyStarted
		}

		decision = progress.Decision{
			From:       current.Status,
			To:         models.EnrollmentInProgress,
			Transition: progress.TransitionStarted,
		}
		now := s.now().UTC()
		applyDecision(&current, decision, now)
		current.LastAccessed = &now
		if err := s.enrollments.UpdateState(ctx, &current); err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}
		s.recordTransition(ctx, current, decision, progress.Result{})
		enrollment = current
		return nil
	})
	if err != nil {
		return models.Enrollment{}, err
	}

	s.afterCommit(ctx, Outcome{StudentID: studentID, CourseID: courseID, Enrollment: enrollment, Decision: decision})
	return enrollment, nil
}

// loadSnapshot reads course content and the student's facts. Fact reads try the joined query first
// and fall back to filtering by the course's lesson and quiz ids; a failed fallback yields no facts.
func (s *completionService) loadSnapshot(ctx context.Context, studentID, courseID uint) (progress.Snapshot, error) {
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return progress.Snapshot{}, fmt.Errorf("list lessons: %w", err)
	}
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return progress.Snapshot{}, fmt.Errorf("list quizzes: %w", err)
	}

	logger := s.logger.With().Uint("student_id", studentID).Uint("course_id", courseID).Logger()

	var completions []models.LessonCompletion
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		completions, err = s.completions.ListByCourse(ctx, studentID, courseID)
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("joined completion query failed, using lesson id filter")
		completions = s.completionsByLessons(ctx, logger, studentID, lessons)
	}

	var attempts []models.QuizAttempt
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		attempts, err = s.attempts.ListByCourse(ctx, studentID, courseID)
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("joined attempt query failed, using quiz id filter")
		attempts = s.attemptsByQuizzes(ctx, logger, studentID, quizzes)
	}

	return progress.Snapshot{
		Lessons:     lessons,
		Completions: completions,
		Quizzes:     quizzes,
		Attempts:    attempts,
	}, nil
}

func (s *completionService) completionsByLessons(ctx context.Context, logger zerolog.Logger, studentID uint, lessons []models.Lesson) []models.LessonCompletion {
	ids := make([]uint, 0, len(lessons))
	for _, lesson := range lessons {
		ids = append(ids, lesson.ID)
	}

	var completions []models.LessonCompletion
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		completions, err = s.completions.ListByLessons(ctx, studentID, ids)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("completion fallback query failed, treating as no data")
		return []models.LessonCompletion{}
	}
	return completions
}

func (s *completionService) attemptsByQuizzes(ctx context.Context, logger zerolog.Logger, studentID uint, quizzes []models.Quiz) []models.QuizAttempt {
	ids := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		ids = append(ids, quiz.ID)
	}

	var attempts []models.QuizAttempt
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		attempts, err = s.attempts.ListByQuizzes(ctx, studentID, ids)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("attempt fallback query failed, treating as no data")
		return []models.QuizAttempt{}
	}
	return attempts
}

// applyDecision keeps completedAt set exactly when the status is completed.
func applyDecision(enrollment *models.Enrollment, decision progress.Decision, now time.Time) {
	enrollment.Status = decision.To

	switch decision.Transition {
	case progress.TransitionCompleted:
		enrollment.CompletedAt = &now
		enrollment.LastAccessed = &now
		if enrollment.StartedAt == nil {
			enrollment.StartedAt = &now
		}
	case progress.TransitionReverted:
		enrollment.CompletedAt = nil
	case progress.TransitionStarted:
		if enrollment.StartedAt == nil {
			enrollment.StartedAt = &now
		}
	}
}

// recordTransition writes the audit entry in a savepoint; audit failures never block a transition.
func (s *completionService) recordTransition(ctx context.Context, enrollment models.Enrollment, decision progress.Decision, result progress.Result) {
	if s.activity == nil {
		return
	}

	entityID := enrollment.ID
	entry := ActivityEntry{
		ActorID:    enrollment.StudentID,
		ActorRole:  models.RoleStudent,
		Action:     transitionAction(decision.Transition),
		EntityType: activityEntityEnrollment,
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"course_id":         enrollment.CourseID,
			"from":              string(decision.From),
			"to":                string(decision.To),
			"progress":          result.Progress,
			"completed_lessons": result.CompletedLessons,
			"total_lessons":     result.TotalLessons,
			"completed_quizzes": result.CompletedQuizzes,
			"passed_quizzes":    result.PassedQuizzes,
			"total_quizzes":     result.TotalQuizzes,
		},
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.activity.Record(ctx, entry)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("enrollment_id", enrollment.ID).Str("action", entry.Action).Msg("failed to record transition")
	}
}

func (s *completionService) recordCertificate(ctx context.Context, certificate models.Certificate) {
	if s.activity == nil {
		return
	}

	entityID := certificate.ID
	entry := ActivityEntry{
		ActorID:    certificate.StudentID,
		ActorRole:  models.RoleStudent,
		Action:     models.ActivityCertificateIssued,
		EntityType: activityEntityCertificate,
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"course_id":         certificate.CourseID,
			"verification_code": certificate.VerificationCode,
		},
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.activity.Record(ctx, entry)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("certificate_id", certificate.ID).Msg("failed to record certificate issuance")
	}
}

func (s *completionService) afterCommit(ctx context.Context, outcome Outcome) {
	decision := outcome.Decision
	observability.EnrollmentTransitions().WithLabelValues(string(decision.From), string(decision.To)).Inc()
	invalidateDashboard(ctx, s.cache, s.logger, outcome.StudentID)

	now := s.now().UTC()
	s.events.Publish(ctx, ProgressEvent{
		Type:         transitionAction(decision.Transition),
		StudentID:    outcome.StudentID,
		CourseID:     outcome.CourseID,
		EnrollmentID: outcome.Enrollment.ID,
		FromStatus:   string(decision.From),
		ToStatus:     string(decision.To),
		Progress:     outcome.Result.Progress,
		OccurredAt:   now,
	})

	if outcome.CertificateIssued && outcome.Certificate != nil {
		observability.CertificatesIssued().Inc()
		s.events.Publish(ctx, ProgressEvent{
			Type:             models.ActivityCertificateIssued,
			StudentID:        outcome.StudentID,
			CourseID:         outcome.CourseID,
			EnrollmentID:     outcome.Enrollment.ID,
			Progress:         outcome.Result.Progress,
			VerificationCode: outcome.Certificate.VerificationCode,
			OccurredAt:       now,
		})
	}

	s.logger.Info().
		Uint("student_id", outcome.StudentID).
		Uint("course_id", outcome.CourseID).
		Str("from", string(decision.From)).
		Str("to", string(decision.To)).
		Msg("enrollment status changed")
}

func transitionAction(transition progress.Transition) string {
	switch transition {
	case progress.TransitionStarted:
		return models.ActivityEnrollmentStarted
	case progress.TransitionCompleted:
		return models.ActivityEnrollmentCompleted
	case progress.TransitionReverted:
		return models.ActivityEnrollmentReverted
	default:
		return ""
	}
}
