package handlers

import (
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TrustHandler handles identity verification and message reports
type TrustHandler struct {
	verificationService *services.VerificationService
	moderationService   *services.ModerationService
}

// NewTrustHandler creates a new trust handler
func NewTrustHandler(verificationService *services.VerificationService, moderationService *services.ModerationService) *TrustHandler {
	return &TrustHandler{
		verificationService: verificationService,
		moderationService:   moderationService,
	}
}

// ReviewRequest carries a review decision
type ReviewRequest struct {
	Status string `json:"status"`
}

// SubmitVerification files a verification request
// @Summary Submit verification
// @Tags Verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SubmitVerificationInput true "Verification"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /verifications [post]
func (h *TrustHandler) SubmitVerification(c *fiber.Ctx) error {
	var req services.SubmitVerificationInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	v, err := h.verificationService.Submit(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return fail(c, err, "Failed to submit verification")
	}
	return response.Created(c, "Verification submitted", v)
}

// MyVerifications lists the user's verification requests
// @Summary My verifications
// @Tags Verification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /verifications/mine [get]
func (h *TrustHandler) MyVerifications(c *fiber.Ctx) error {
	list, err := h.verificationService.ListMine(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to list verifications")
	}
	return response.Success(c, "Verifications retrieved successfully", list)
}

// PendingVerifications lists requests awaiting review
// @Summary Pending verifications
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/verifications [get]
func (h *TrustHandler) PendingVerifications(c *fiber.Ctx) error {
	list, err := h.verificationService.ListPending(c.Context())
	if err != nil {
		return fail(c, err, "Failed to list verifications")
	}
	return response.Success(c, "Verifications retrieved successfully", list)
}

// ReviewVerification approves or rejects a verification
// @Summary Review verification
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Verification ID"
// @Param body body ReviewRequest true "verified or rejected"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/verifications/{id} [put]
func (h *TrustHandler) ReviewVerification(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	v, err := h.verificationService.Review(c.Context(), middleware.UserID(c), c.Params("id"), domain.VerificationStatus(req.Status))
	if err != nil {
		return fail(c, err, "Failed to review verification")
	}
	return response.Success(c, "Verification reviewed", v)
}

// Report flags a community or direct message
// @Summary Report message
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ReportInput true "Report"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reports [post]
func (h *TrustHandler) Report(c *fiber.Ctx) error {
	var req services.ReportInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	report, err := h.moderationService.Report(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return fail(c, err, "Failed to report message")
	}
	return response.Created(c, "Report submitted", report)
}

// ListReports lists reports, optionally by status
// @Summary List reports
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, reviewed, resolved, dismissed"
// @Success 200 {object} response.Response
// @Router /admin/reports [get]
func (h *TrustHandler) ListReports(c *fiber.Ctx) error {
	var status *domain.ReportStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.ReportStatus(raw)
		status = &s
	}

	list, err := h.moderationService.List(c.Context(), status)
	if err != nil {
		return fail(c, err, "Failed to list reports")
	}
	return response.Success(c, "Reports retrieved successfully", list)
}

// ReviewReport records the moderation outcome of a report
// @Summary Review report
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param body body ReviewRequest true "reviewed, resolved or dismissed"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/reports/{id} [put]
func (h *TrustHandler) ReviewReport(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	report, err := h.moderationService.Review(c.Context(), middleware.UserID(c), c.Params("id"), domain.ReportStatus(req.Status))
	if err != nil {
		return fail(c, err, "Failed to review report")
	}
	return response.Success(c, "Report reviewed", report)
}
