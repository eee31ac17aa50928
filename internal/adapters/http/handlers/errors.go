package handlers

import (
	"errors"

	"aidmap-api/internal/adapters/storage"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/core/services"
	"aidmap-api/internal/pkg/logger"
	"aidmap-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// invalidCardMessage is shown when the mock provider rejects a card
const invalidCardMessage = "Invalid card number. Use 4242 4242 4242 4242 for demo."

type statusRule struct {
	err    error
	status int
}

// statusRules maps service errors onto HTTP statuses. Matching errors are
// returned to the client with their own message.
var statusRules = []statusRule{
	{services.ErrValidation, fiber.StatusBadRequest},
	{domain.ErrInvalidInput, fiber.StatusBadRequest},
	{domain.ErrInvalidAssistanceType, fiber.StatusBadRequest},
	{domain.ErrAmountRequired, fiber.StatusBadRequest},
	{domain.ErrServiceDescriptionRequired, fiber.StatusBadRequest},
	{domain.ErrUnexpectedAmount, fiber.StatusBadRequest},
	{services.ErrInvalidCategory, fiber.StatusBadRequest},
	{services.ErrInvalidUrgency, fiber.StatusBadRequest},
	{services.ErrInvalidLocation, fiber.StatusBadRequest},
	{services.ErrInvalidFulfillment, fiber.StatusBadRequest},
	{services.ErrWeakPassword, fiber.StatusBadRequest},
	{services.ErrEmptyMessage, fiber.StatusBadRequest},
	{services.ErrInvalidMessageType, fiber.StatusBadRequest},
	{services.ErrCannotMessageSelf, fiber.StatusBadRequest},
	{services.ErrInvalidVerificationType, fiber.StatusBadRequest},
	{services.ErrInvalidVerificationData, fiber.StatusBadRequest},
	{services.ErrPhoneNumberRequired, fiber.StatusBadRequest},
	{services.ErrAddressRequired, fiber.StatusBadRequest},
	{services.ErrInvalidVerificationState, fiber.StatusBadRequest},
	{services.ErrInvalidReportReason, fiber.StatusBadRequest},
	{services.ErrInvalidReportTarget, fiber.StatusBadRequest},
	{services.ErrInvalidReportStatus, fiber.StatusBadRequest},

	{services.ErrSignInRequired, fiber.StatusUnauthorized},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},

	{domain.ErrForbidden, fiber.StatusForbidden},
	{services.ErrNotRequestOwner, fiber.StatusForbidden},
	{services.ErrNotParticipant, fiber.StatusForbidden},
	{services.ErrPostingBlocked, fiber.StatusForbidden},
	{services.ErrCannotFundOwn, fiber.StatusForbidden},
	{services.ErrDonorBanned, fiber.StatusForbidden},
	{services.ErrNotMessageAuthor, fiber.StatusForbidden},
	{services.ErrNotNeighborhoodMember, fiber.StatusForbidden},
	{services.ErrCannotReportOwn, fiber.StatusForbidden},
	{services.ErrCannotBanSelf, fiber.StatusForbidden},
	{services.ErrUserInactive, fiber.StatusForbidden},

	{domain.ErrNotFound, fiber.StatusNotFound},
	{services.ErrAidRequestNotFound, fiber.StatusNotFound},
	{services.ErrProfileNotFound, fiber.StatusNotFound},
	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrNeighborhoodNotFound, fiber.StatusNotFound},
	{services.ErrMessageNotFound, fiber.StatusNotFound},
	{services.ErrRecipientNotFound, fiber.StatusNotFound},
	{services.ErrReportNotFound, fiber.StatusNotFound},
	{services.ErrReportedMsgNotFound, fiber.StatusNotFound},
	{services.ErrVerificationNotFound, fiber.StatusNotFound},

	{domain.ErrDuplicateEntry, fiber.StatusConflict},
	{domain.ErrInvalidTransition, fiber.StatusConflict},
	{services.ErrRequestClosed, fiber.StatusConflict},
	{services.ErrRequestNotOpen, fiber.StatusConflict},
	{services.ErrRequestNotFunded, fiber.StatusConflict},
	{services.ErrNeighborhoodExists, fiber.StatusConflict},
	{services.ErrUserAlreadyExists, fiber.StatusConflict},
	{services.ErrUsernameTaken, fiber.StatusConflict},
	{services.ErrVerificationNotPending, fiber.StatusConflict},
	{services.ErrDonorRequired, fiber.StatusConflict},

	{services.ErrRateLimited, fiber.StatusTooManyRequests},

	{storage.ErrStorageDisabled, fiber.StatusServiceUnavailable},
}

// fail writes the response for a service error. Unknown errors are logged
// and reported as a 500 with the fallback message.
func fail(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, services.ErrInvalidCard) {
		return response.BadRequest(c, invalidCardMessage)
	}
	for _, rule := range statusRules {
		if errors.Is(err, rule.err) {
			return response.Error(c, rule.status, err.Error())
		}
	}

	logger.WithError(err).WithField("path", c.Path()).Error("❌ " + fallback)
	return response.InternalServerError(c, fallback)
}
