package handlers

import (
	"aidmap-api/internal/adapters/http/middleware"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MessageHandler handles community chat, direct messages and request threads
type MessageHandler struct {
	messaging *services.MessagingService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messaging *services.MessagingService) *MessageHandler {
	return &MessageHandler{messaging: messaging}
}

// ContentRequest is a plain text message body
type ContentRequest struct {
	Content string `json:"content"`
}

// ListCommunity returns a neighborhood's chat, oldest first
// @Summary Community messages
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Neighborhood ID"
// @Param type query string false "all, general, help_request, help_offer, event, alert"
// @Success 200 {object} response.Response
// @Router /neighborhoods/{id}/messages [get]
func (h *MessageHandler) ListCommunity(c *fiber.Ctx) error {
	list, err := h.messaging.ListCommunity(c.Context(), c.Params("id"), c.Query("type", services.MessageFilterAll))
	if err != nil {
		return fail(c, err, "Failed to load messages")
	}
	return response.Success(c, "Messages retrieved successfully", list)
}

// PostCommunity posts to a neighborhood's chat
// @Summary Post community message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Neighborhood ID"
// @Param body body services.CommunityPostInput true "Message"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /neighborhoods/{id}/messages [post]
func (h *MessageHandler) PostCommunity(c *fiber.Ctx) error {
	var req services.CommunityPostInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	msg, err := h.messaging.PostCommunity(c.Context(), middleware.UserID(c), c.Params("id"), &req)
	if err != nil {
		return fail(c, err, "Failed to send message")
	}
	return response.Created(c, "Message sent", msg)
}

// ResolveCommunity marks a help message resolved
// @Summary Resolve community message
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /messages/community/{id}/resolve [post]
func (h *MessageHandler) ResolveCommunity(c *fiber.Ctx) error {
	msg, err := h.messaging.ResolveCommunity(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to resolve message")
	}
	return response.Success(c, "Message resolved", msg)
}

// Conversations lists direct message partners, latest first
// @Summary Direct conversations
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /messages/direct [get]
func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	list, err := h.messaging.Conversations(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to load conversations")
	}
	return response.Success(c, "Conversations retrieved successfully", list)
}

// DirectThread returns the messages exchanged with one partner
// @Summary Direct thread
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Partner user ID"
// @Success 200 {object} response.Response
// @Router /messages/direct/{userId} [get]
func (h *MessageHandler) DirectThread(c *fiber.Ctx) error {
	list, err := h.messaging.DirectThread(c.Context(), middleware.UserID(c), c.Params("userId"))
	if err != nil {
		return fail(c, err, "Failed to load messages")
	}
	return response.Success(c, "Messages retrieved successfully", list)
}

// SendDirect sends a direct message
// @Summary Send direct message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Recipient user ID"
// @Param body body ContentRequest true "Message"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /messages/direct/{userId} [post]
func (h *MessageHandler) SendDirect(c *fiber.Ctx) error {
	var req ContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	msg, err := h.messaging.SendDirect(c.Context(), middleware.UserID(c), c.Params("userId"), req.Content)
	if err != nil {
		return fail(c, err, "Failed to send message")
	}
	return response.Created(c, "Message sent", msg)
}

// MarkRead marks a partner's messages as read
// @Summary Mark direct thread read
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Partner user ID"
// @Success 200 {object} response.Response
// @Router /messages/direct/{userId}/read [post]
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	n, err := h.messaging.MarkRead(c.Context(), middleware.UserID(c), c.Params("userId"))
	if err != nil {
		return fail(c, err, "Failed to mark messages read")
	}
	return response.Success(c, "Messages marked read", fiber.Map{"updated": n})
}

// RequestConversations lists the request threads the user takes part in
// @Summary Request threads
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /messages/requests [get]
func (h *MessageHandler) RequestConversations(c *fiber.Ctx) error {
	list, err := h.messaging.RequestConversations(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err, "Failed to load conversations")
	}
	return response.Success(c, "Conversations retrieved successfully", list)
}

// RequestThread returns the requester/donor thread of one request
// @Summary Request thread
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /aid-requests/{id}/messages [get]
func (h *MessageHandler) RequestThread(c *fiber.Ctx) error {
	list, err := h.messaging.RequestThread(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to load messages")
	}
	return response.Success(c, "Messages retrieved successfully", list)
}

// SendRequestMessage posts to a request thread
// @Summary Send request message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Aid request ID"
// @Param body body ContentRequest true "Message"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /aid-requests/{id}/messages [post]
func (h *MessageHandler) SendRequestMessage(c *fiber.Ctx) error {
	var req ContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	msg, err := h.messaging.SendRequestMessage(c.Context(), middleware.UserID(c), c.Params("id"), req.Content)
	if err != nil {
		return fail(c, err, "Failed to send message")
	}
	return response.Created(c, "Message sent", msg)
}
