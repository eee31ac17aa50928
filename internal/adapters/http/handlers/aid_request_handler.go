package handlers

import (
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// maxProofSize caps proof-of-delivery uploads
const maxProofSize = 5 << 20

var proofContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// AidRequestHandler handles the aid request lifecycle and funding
type AidRequestHandler struct {
	aidService     *services.AidRequestService
	fundingService *services.FundingService
}

// NewAidRequestHandler creates a new aid request handler
func NewAidRequestHandler(aidService *services.AidRequestService, fundingService *services.FundingService) *AidRequestHandler {
	return &AidRequestHandler{
		aidService:     aidService,
		fundingService: fundingService,
	}
}

// Post creates an open aid request
// @Summary Post aid request
// @Tags AidRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.PostAidRequestInput true "Aid request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /aid-requests [post]
func (h *AidRequestHandler) Post(c *fiber.Ctx) error {
	var req services.PostAidRequestInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	created, err := h.aidService.Post(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return fail(c, err, "Failed to post aid request")
	}
	return response.Created(c, "Aid request posted", created)
}

// Get returns one aid request. Outsiders see an offset position and no address.
// @Summary Get aid request
// @Tags AidRequests
// @Produce json
// @Param id path string true "Aid request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /aid-requests/{id} [get]
func (h *AidRequestHandler) Get(c *fiber.Ctx) error {
	req, err := h.aidService.View(c.Context(), middleware.UserID(c), middleware.IsAdmin(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get aid request")
	}
	return response.Success(c, "Aid request retrieved successfully", req)
}

// Edit updates an open request
// @Summary Edit aid request
// @Tags AidRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Param body body services.EditAidRequestInput true "Changed fields"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /aid-requests/{id} [put]
func (h *AidRequestHandler) Edit(c *fiber.Ctx) error {
	var req services.EditAidRequestInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	updated, err := h.aidService.Edit(c.Context(), middleware.UserID(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err, "Failed to edit aid request")
	}
	return response.Success(c, "Aid request updated", updated)
}

// Close marks a request completed with its fulfillment outcome
// @Summary Close aid request
// @Tags AidRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Param body body services.CloseAidRequestInput false "Outcome"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /aid-requests/{id}/close [post]
func (h *AidRequestHandler) Close(c *fiber.Ctx) error {
	var req services.CloseAidRequestInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	closed, err := h.aidService.Close(c.Context(), middleware.UserID(c), middleware.IsAdmin(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err, "Failed to close aid request")
	}
	return response.Success(c, "Aid request closed", closed)
}

// ConfirmReceipt completes a funded request and releases the escrow
// @Summary Confirm receipt
// @Tags AidRequests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /aid-requests/{id}/confirm [post]
func (h *AidRequestHandler) ConfirmReceipt(c *fiber.Ctx) error {
	done, err := h.aidService.ConfirmReceipt(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to confirm receipt")
	}
	return response.Success(c, "Receipt confirmed", done)
}

// StartProgress moves a funded request to in progress
// @Summary Start progress
// @Tags AidRequests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /aid-requests/{id}/start [post]
func (h *AidRequestHandler) StartProgress(c *fiber.Ctx) error {
	started, err := h.aidService.StartProgress(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to start progress")
	}
	return response.Success(c, "Aid request in progress", started)
}

// Cancel withdraws a request
// @Summary Cancel aid request
// @Tags AidRequests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /aid-requests/{id}/cancel [post]
func (h *AidRequestHandler) Cancel(c *fiber.Ctx) error {
	cancelled, err := h.aidService.Cancel(c.Context(), middleware.UserID(c), middleware.IsAdmin(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to cancel aid request")
	}
	return response.Success(c, "Aid request cancelled", cancelled)
}

// UploadProof stores a proof-of-delivery file
// @Summary Upload proof of delivery
// @Tags AidRequests
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Param proof formData file true "Image or PDF, at most 5MB"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /aid-requests/{id}/proof [post]
func (h *AidRequestHandler) UploadProof(c *fiber.Ctx) error {
	file, err := c.FormFile("proof")
	if err != nil {
		return response.BadRequest(c, "proof file is required")
	}
	if file.Size > maxProofSize {
		return response.BadRequest(c, "proof file must be at most 5MB")
	}
	contentType := file.Header.Get("Content-Type")
	if !proofContentTypes[contentType] {
		return response.BadRequest(c, "proof must be a JPEG, PNG, WebP image or a PDF")
	}

	body, err := file.Open()
	if err != nil {
		return response.BadRequest(c, "Unable to read proof file")
	}
	defer body.Close()

	updated, err := h.aidService.AttachProof(c.Context(), middleware.UserID(c), c.Params("id"), file.Filename, contentType, body)
	if err != nil {
		return fail(c, err, "Failed to upload proof")
	}
	return response.Success(c, "Proof uploaded", updated)
}

// Fund pays for (or offers help on) an open request
// @Summary Fund aid request
// @Description Monetary requests are charged through the payment provider. Service-only requests are taken on without a charge.
// @Tags AidRequests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Param body body services.FundInput false "Card details"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /aid-requests/{id}/fund [post]
func (h *AidRequestHandler) Fund(c *fiber.Ctx) error {
	var req services.FundInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	result, err := h.fundingService.Fund(c.Context(), middleware.UserID(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err, "Payment failed. Please try again.")
	}
	return response.Success(c, "Payment successful! Thank you for your help.", result)
}

// ListMine returns the signed-in user's requests
// @Summary My aid requests
// @Tags AidRequests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /aid-requests/mine [get]
func (h *AidRequestHandler) ListMine(c *fiber.Ctx) error {
	list, err := h.aidService.ListMine(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to list aid requests")
	}
	return response.Success(c, "Aid requests retrieved successfully", list)
}

// ListFunded returns requests the signed-in user funded
// @Summary Requests I funded
// @Tags AidRequests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /aid-requests/funded [get]
func (h *AidRequestHandler) ListFunded(c *fiber.Ctx) error {
	list, err := h.aidService.ListFundedBy(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to list funded requests")
	}
	return response.Success(c, "Funded requests retrieved successfully", list)
}
