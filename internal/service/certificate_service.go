package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/repository"
)

// ErrCertificateNotFound indicates no certificate matches the verification code.
var ErrCertificateNotFound = errors.New("certificate not found")

const certificateCodeAttempts = 3

// CertificateService issues and looks up course completion certificates.
type CertificateService interface {
	// Ensure returns the certificate for the pair, creating it when absent. It returns a nil
	// certificate without error when the student or course does not exist. Only the completion
	// state machine calls it, on the transition into completed.
	Ensure(ctx context.Context, studentID, courseID uint) (*models.Certificate, bool, error)
	List(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error)
	Verify(ctx context.Context, code string) (dto.CertificateVerificationResponse, error)
}

type certificateService struct {
	tx           repository.Transactor
	certificates repository.CertificateRepository
	students     repository.StudentRepository
	courses      repository.CourseRepository
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
	suffix       func() string
}

// NewCertificateService constructs the certificate issuance guard.
func NewCertificateService(tx repository.Transactor, certificates repository.CertificateRepository, students repository.StudentRepository, courses repository.CourseRepository, logger zerolog.Logger) CertificateService {
	return &certificateService{
		tx:           tx,
		certificates: certificates,
		students:     students,
		courses:      courses,
		logger:       logger.With().Str("component", "certificate_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-course-api/internal/service/certificate"),
		now:          time.Now,
		suffix:       randomCodeSuffix,
	}
}

func (s *certificateService) Ensure(ctx context.Context, studentID, courseID uint) (*models.Certificate, bool, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.ensure", trace.WithAttributes(
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("course.id", int64(courseID)),
	))
	defer span.End()

	existing, err := s.certificates.Get(ctx, studentID, courseID)
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return nil, false, fmt.Errorf("load certificate: %w", err)
	}

	logger := s.logger.With().Uint("student_id", studentID).Uint("course_id", courseID).Logger()

	studentExists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, false, fmt.Errorf("check student: %w", err)
	}
	if !studentExists {
		logger.Warn().Msg("skipping certificate for unknown student")
		return nil, false, nil
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Msg("skipping certificate for unknown course")
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("check course: %w", err)
	}

	for attempt := 0; attempt < certificateCodeAttempts; attempt++ {
		now := s.now().UTC()
		certificate := models.Certificate{
			StudentID:        studentID,
			CourseID:         courseID,
			VerificationCode: s.verificationCode(now, studentID, courseID),
			GeneratedAt:      now,
		}

		// The insert runs in a savepoint so a unique violation leaves the caller's transaction usable.
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.certificates.Create(ctx, &certificate)
		})
		if err == nil {
			logger.Info().Str("verification_code", certificate.VerificationCode).Msg("certificate issued")
			return &certificate, true, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			span.RecordError(err)
			return nil, false, fmt.Errorf("create certificate: %w", err)
		}

		// Either a concurrent completion won the race or the code collided.
		existing, getErr := s.certificates.Get(ctx, studentID, courseID)
		if getErr == nil {
			logger.Debug().Msg("certificate already issued concurrently")
			return &existing, false, nil
		}
		if !errors.Is(getErr, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("reload certificate: %w", getErr)
		}
		logger.Warn().Int("attempt", attempt+1).Msg("verification code collision, regenerating")
	}

	return nil, false, fmt.Errorf("could not generate a unique verification code after %d attempts", certificateCodeAttempts)
}

func (s *certificateService) List(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error) {
	certificates, err := s.certificates.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CertificateResponse, 0, len(certificates))
	for _, certificate := range certificates {
		responses = append(responses, dto.NewCertificateResponse(certificate))
	}
	return responses, nil
}

func (s *certificateService) Verify(ctx context.Context, code string) (dto.CertificateVerificationResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return dto.CertificateVerificationResponse{}, ErrCertificateNotFound
	}

	certificate, err := s.certificates.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CertificateVerificationResponse{}, ErrCertificateNotFound
		}
		return dto.CertificateVerificationResponse{}, err
	}

	return dto.NewCertificateVerificationResponse(certificate), nil
}

// verificationCode renders CERT-<yyyymmddhhmmss>-<student>-<course>-<suffix>.
func (s *certificateService) verificationCode(at time.Time, studentID, courseID uint) string {
	return fmt.Sprintf("CERT-%s-%06d-%06d-%s", at.Format("20060102150405"), studentID, courseID, s.suffix())
}

func randomCodeSuffix() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
