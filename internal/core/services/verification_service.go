package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Verification errors
var (
	ErrVerificationNotFound     = errors.New("verification not found")
	ErrInvalidVerificationType  = errors.New("invalid verification type")
	ErrInvalidVerificationData  = errors.New("verification data must be a JSON object")
	ErrPhoneNumberRequired      = errors.New("phone_number is required")
	ErrAddressRequired          = errors.New("address is required")
	ErrVerificationNotPending   = errors.New("verification has already been reviewed")
	ErrInvalidVerificationState = errors.New("review status must be verified or rejected")
)

// VerificationService handles identity verification submissions
type VerificationService struct {
	verificationRepo repositories.VerificationRepository
	profileRepo      repositories.ProfileRepository
}

// NewVerificationService creates a new verification service
func NewVerificationService(verificationRepo repositories.VerificationRepository, profileRepo repositories.ProfileRepository) *VerificationService {
	return &VerificationService{
		verificationRepo: verificationRepo,
		profileRepo:      profileRepo,
	}
}

// SubmitVerificationInput carries an opaque payload whose required keys
// depend on the type.
type SubmitVerificationInput struct {
	VerificationType domain.VerificationType `json:"verification_type"`
	VerificationData json.RawMessage         `json:"verification_data"`
}

// Submit records a pending verification for userID
func (s *VerificationService) Submit(ctx context.Context, userID string, input *SubmitVerificationInput) (*models.UserVerification, error) {
	if !input.VerificationType.Valid() {
		return nil, ErrInvalidVerificationType
	}

	data := input.VerificationData
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, ErrInvalidVerificationData
	}

	switch input.VerificationType {
	case domain.VerificationPhone:
		if strings.TrimSpace(gjson.GetBytes(data, "phone_number").String()) == "" {
			return nil, ErrPhoneNumberRequired
		}
	case domain.VerificationAddress:
		if strings.TrimSpace(gjson.GetBytes(data, "address").String()) == "" {
			return nil, ErrAddressRequired
		}
	}

	v := &models.UserVerification{
		UserID:           userID,
		VerificationType: input.VerificationType,
		Status:           domain.VerificationPending,
		VerificationData: datatypes.JSON(data),
	}
	if err := s.verificationRepo.Create(ctx, v); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"user_id": userID, "type": v.VerificationType}).Info("📝 Verification submitted")
	return v, nil
}

// ListMine returns the user's submissions newest first
func (s *VerificationService) ListMine(ctx context.Context, userID string) ([]*models.UserVerification, error) {
	return s.verificationRepo.ListByUser(ctx, userID)
}

// ListPending returns submissions waiting for review oldest first
func (s *VerificationService) ListPending(ctx context.Context) ([]*models.UserVerification, error) {
	return s.verificationRepo.ListByStatus(ctx, domain.VerificationPending)
}

// Review settles a pending submission. Approval marks the profile verified.
func (s *VerificationService) Review(ctx context.Context, reviewerID, id string, status domain.VerificationStatus) (*models.UserVerification, error) {
	if status != domain.VerificationVerified && status != domain.VerificationRejected {
		return nil, ErrInvalidVerificationState
	}

	v, err := s.verificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	if v.Status != domain.VerificationPending {
		return nil, ErrVerificationNotPending
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":      status,
		"verified_by": reviewerID,
	}
	if status == domain.VerificationVerified {
		fields["verified_at"] = now
	}
	if err := s.verificationRepo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	if status == domain.VerificationVerified {
		if err := s.profileRepo.Update(ctx, v.UserID, map[string]interface{}{"is_verified": true}); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"verification_id": id,
		"user_id":         v.UserID,
		"status":          status,
	}).Info("✅ Verification reviewed")
	return s.verificationRepo.GetByID(ctx, id)
}
