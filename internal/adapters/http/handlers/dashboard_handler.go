package handlers

import (
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetAdminDashboard returns admin dashboard data
// @Summary Admin Dashboard
// @Description Community totals, recent requests and top donors (Admin only)
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/admin [get]
func (h *DashboardHandler) GetAdminDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetAdminDashboard(c.Context())
	if err != nil {
		return fail(c, err, "Failed to get admin dashboard")
	}

	return response.Success(c, "Admin dashboard retrieved successfully", data)
}

// GetUserDashboard returns user dashboard data
// @Summary User Dashboard
// @Description My requests, requests I funded and totals
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard/user [get]
func (h *DashboardHandler) GetUserDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetUserDashboard(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to get user dashboard")
	}

	return response.Success(c, "User dashboard retrieved successfully", data)
}
