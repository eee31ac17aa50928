package handlers

import (
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetMine returns the signed-in user's profile
// @Summary My profile
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/me [get]
func (h *ProfileHandler) GetMine(c *fiber.Ctx) error {
	profile, err := h.profileService.Get(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to get profile")
	}
	return response.Success(c, "Profile retrieved successfully", profile)
}

// Get returns a public profile
// @Summary Get profile
// @Tags Profiles
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/{id} [get]
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.profileService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get profile")
	}
	return response.Success(c, "Profile retrieved successfully", profile)
}

// Update edits username, bio and skills
// @Summary Update my profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Profile fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profiles/me [put]
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	profile, err := h.profileService.Update(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return fail(c, err, "Failed to update profile")
	}
	return response.Success(c, "Profile updated successfully", profile)
}

// WelcomeStatus reports whether the welcome modal should be shown
// @Summary Welcome modal status
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /profiles/me/welcome [get]
func (h *ProfileHandler) WelcomeStatus(c *fiber.Ctx) error {
	status, err := h.profileService.WelcomeStatus(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to get welcome status")
	}
	return response.Success(c, "Welcome status retrieved successfully", status)
}

// MarkWelcomeSeen dismisses the welcome modal
// @Summary Dismiss welcome modal
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /profiles/me/welcome [post]
func (h *ProfileHandler) MarkWelcomeSeen(c *fiber.Ctx) error {
	if err := h.profileService.MarkWelcomeSeen(c.Context(), middleware.UserID(c)); err != nil {
		return fail(c, err, "Failed to update welcome status")
	}
	return response.Success(c, "Welcome dismissed", nil)
}
