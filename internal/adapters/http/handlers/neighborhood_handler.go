package handlers

import (
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NeighborhoodHandler handles neighborhood endpoints
type NeighborhoodHandler struct {
	neighborhoodService *services.NeighborhoodService
}

// NewNeighborhoodHandler creates a new neighborhood handler
func NewNeighborhoodHandler(neighborhoodService *services.NeighborhoodService) *NeighborhoodHandler {
	return &NeighborhoodHandler{neighborhoodService: neighborhoodService}
}

// List returns all neighborhoods ordered by name
// @Summary List neighborhoods
// @Tags Neighborhoods
// @Produce json
// @Success 200 {object} response.Response
// @Router /neighborhoods [get]
func (h *NeighborhoodHandler) List(c *fiber.Ctx) error {
	list, err := h.neighborhoodService.List(c.Context())
	if err != nil {
		return fail(c, err, "Failed to list neighborhoods")
	}
	return response.Success(c, "Neighborhoods retrieved successfully", list)
}

// Get returns one neighborhood
// @Summary Get neighborhood
// @Tags Neighborhoods
// @Produce json
// @Param id path string true "Neighborhood ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /neighborhoods/{id} [get]
func (h *NeighborhoodHandler) Get(c *fiber.Ctx) error {
	n, err := h.neighborhoodService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get neighborhood")
	}
	return response.Success(c, "Neighborhood retrieved successfully", n)
}

// Create registers a neighborhood and joins the creator to it
// @Summary Create neighborhood
// @Description Coordinates come from the city table; unknown cities fall back to the US center
// @Tags Neighborhoods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateNeighborhoodInput true "Neighborhood"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /neighborhoods [post]
func (h *NeighborhoodHandler) Create(c *fiber.Ctx) error {
	var req services.CreateNeighborhoodInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	n, err := h.neighborhoodService.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return fail(c, err, "Failed to create neighborhood")
	}
	return response.Created(c, "Neighborhood created successfully", n)
}

// Join moves the signed-in user into a neighborhood
// @Summary Join neighborhood
// @Tags Neighborhoods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Neighborhood ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /neighborhoods/{id}/join [post]
func (h *NeighborhoodHandler) Join(c *fiber.Ctx) error {
	if err := h.neighborhoodService.Join(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return fail(c, err, "Failed to join neighborhood")
	}
	return response.Success(c, "Joined neighborhood", nil)
}
