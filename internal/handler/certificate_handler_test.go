package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-course-api/internal/dto"
	"github.com/noah-isme/gema-course-api/internal/handler"
	"github.com/noah-isme/gema-course-api/internal/models"
	"github.com/noah-isme/gema-course-api/internal/service"
)

type stubCertificateService struct {
	codes map[string]dto.CertificateVerificationResponse
}

func (s *stubCertificateService) Ensure(context.Context, uint, uint) (*models.Certificate, bool, error) {
	return nil, false, nil
}

func (s *stubCertificateService) List(context.Context, uint) ([]dto.CertificateResponse, error) {
	return []dto.CertificateResponse{{ID: 1, CourseID: 2, VerificationCode: "CERT-1"}}, nil
}

func (s *stubCertificateService) Verify(_ context.Context, code string) (dto.CertificateVerificationResponse, error) {
	if resp, ok := s.codes[code]; ok {
		return resp, nil
	}
	return dto.CertificateVerificationResponse{}, service.ErrCertificateNotFound
}

func TestCertificateHandler_PublicVerification(t *testing.T) {
	svc := &stubCertificateService{codes: map[string]dto.CertificateVerificationResponse{
		"CERT-OK": {VerificationCode: "CERT-OK", StudentName: "Rina", CourseTitle: "Go", GeneratedAt: time.Now().UTC()},
	}}
	h := handler.NewCertificateHandler(svc, zerolog.Nop())

	app := fiber.New()
	h.Register(app.Group("/api/v2/student", withUser(3, "student")))
	h.RegisterPublic(app.Group("/api/v2/certificates"))

	resp, payload := doRequest(t, app, http.MethodGet, "/api/v2/certificates/verify/CERT-OK", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var data dto.CertificateVerificationResponse
	decodeData(t, payload, &data)
	require.Equal(t, "Rina", data.StudentName)

	resp, payload = doRequest(t, app, http.MethodGet, "/api/v2/certificates/verify/CERT-MISSING", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "certificate not found", payload.Message)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v2/student/certificates", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
