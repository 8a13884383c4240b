package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/service"
	"github.com/noah-isme/gema-course-api/internal/utils"
)

// CertificateHandler lists a student's certificates and verifies codes publicly.
type CertificateHandler struct {
	service service.CertificateService
	logger  zerolog.Logger
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(service service.CertificateService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service: service,
		logger:  logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// Register attaches the authenticated student route.
func (h *CertificateHandler) Register(router fiber.Router) {
	router.Get("/certificates", h.list)
}

// RegisterPublic attaches the unauthenticated verification route.
func (h *CertificateHandler) RegisterPublic(router fiber.Router) {
	router.Get("/verify/:code", h.verify)
}

func (h *CertificateHandler) list(c *fiber.Ctx) error {
	studentID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	certificates, err := h.service.List(c.UserContext(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to list certificates")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list certificates")
	}
	return utils.SendSuccess(c, "certificates retrieved", certificates)
}

func (h *CertificateHandler) verify(c *fiber.Ctx) error {
	response, err := h.service.Verify(c.UserContext(), c.Params("code"))
	if err != nil {
		if errors.Is(err, service.ErrCertificateNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "certificate not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to verify certificate")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to verify certificate")
	}
	return utils.SendSuccess(c, "certificate verified", response)
}
