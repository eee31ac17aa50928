package handlers

import (
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/pagination"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the admin panel
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// StatusRequest carries a target request status
type StatusRequest struct {
	Status string `json:"status"`
}

// ListRequests lists aid requests with owner details
// @Summary List aid requests (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/aid-requests [get]
func (h *AdminHandler) ListRequests(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	var status *domain.RequestStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.RequestStatus(raw)
		status = &s
	}

	rows, total, err := h.adminService.ListRequests(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list aid requests")
	}
	return response.Success(c, "Aid requests retrieved successfully", pagination.NewResponse(rows, params, total))
}

// ListUsers lists profiles joined with account emails
// @Summary List users (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	rows, total, err := h.adminService.ListUsers(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return fail(c, err, "Failed to list users")
	}
	return response.Success(c, "Users retrieved successfully", pagination.NewResponse(rows, params, total))
}

// Ban blocks a user from posting and funding
// @Summary Ban user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/ban [post]
func (h *AdminHandler) Ban(c *fiber.Ctx) error {
	profile, err := h.adminService.Ban(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to ban user")
	}
	return response.Success(c, "User banned", profile)
}

// Unban restores a user's reputation to zero
// @Summary Unban user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/unban [post]
func (h *AdminHandler) Unban(c *fiber.Ctx) error {
	profile, err := h.adminService.Unban(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to unban user")
	}
	return response.Success(c, "User unbanned", profile)
}

// SetRequestStatus moves a request through the allowed transitions
// @Summary Change request status (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Param body body StatusRequest true "Target status"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/aid-requests/{id}/status [put]
func (h *AdminHandler) SetRequestStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	updated, err := h.adminService.SetRequestStatus(c.Context(), c.Params("id"), domain.RequestStatus(req.Status))
	if err != nil {
		return fail(c, err, "Failed to change status")
	}
	return response.Success(c, "Status updated", updated)
}

// DeleteRequest soft deletes a request
// @Summary Delete aid request (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/aid-requests/{id} [delete]
func (h *AdminHandler) DeleteRequest(c *fiber.Ctx) error {
	if err := h.adminService.DeleteRequest(c.Context(), c.Params("id")); err != nil {
		return fail(c, err, "Failed to delete aid request")
	}
	return response.Success(c, "Aid request deleted", nil)
}
