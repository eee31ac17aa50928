package services

import (
	"context"
	"errors"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/logger"
	"aidmap-api/internal/pkg/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Funding errors
var (
	ErrCannotFundOwn = errors.New("you cannot fund your own request")
	ErrDonorBanned   = errors.New("funding is disabled for this account")
)

// FundingService connects donors, the payment provider and aid requests
type FundingService struct {
	aidRequestRepo repositories.AidRequestRepository
	profileRepo    repositories.ProfileRepository
	provider       PaymentProvider
	publisher      realtime.Publisher
}

// NewFundingService creates a new funding service
func NewFundingService(
	aidRequestRepo repositories.AidRequestRepository,
	profileRepo repositories.ProfileRepository,
	provider PaymentProvider,
	publisher realtime.Publisher,
) *FundingService {
	return &FundingService{
		aidRequestRepo: aidRequestRepo,
		profileRepo:    profileRepo,
		provider:       provider,
		publisher:      publisher,
	}
}

// FundInput carries the donor's card for monetary requests
type FundInput struct {
	CardNumber string `json:"card_number"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CVC        string `json:"cvc"`
	Name       string `json:"name"`
}

// FundResult describes a completed funding
type FundResult struct {
	Request       *models.AidRequest `json:"request"`
	TransactionID string             `json:"transaction_id,omitempty"`
}

// Fund pays for an open request. Service-only requests are taken on as an
// offer of help: no charge is made and no transaction is written.
func (s *FundingService) Fund(ctx context.Context, donorID, requestID string, input *FundInput) (*FundResult, error) {
	req, err := s.aidRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAidRequestNotFound
		}
		return nil, err
	}
	if req.UserID == donorID {
		return nil, ErrCannotFundOwn
	}
	if req.Status != domain.StatusOpen {
		return nil, ErrRequestNotOpen
	}

	donor, err := s.profileRepo.GetByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if donor.IsBanned() {
		return nil, ErrDonorBanned
	}

	var payment *models.Transaction
	result := &FundResult{}

	if req.AssistanceType.NeedsMoney() && req.Amount != nil {
		start := time.Now()
		charge, err := s.provider.Charge(ctx, ChargeRequest{
			AidRequestID: req.ID,
			DonorID:      donorID,
			Amount:       *req.Amount,
			CardNumber:   input.CardNumber,
		})
		if err != nil {
			outcome := "error"
			if errors.Is(err, ErrInvalidCard) {
				outcome = "declined"
			}
			metrics.RecordPayment(s.provider.Name(), outcome, time.Since(start))
			return nil, err
		}
		metrics.RecordPayment(s.provider.Name(), "success", time.Since(start))

		payment = &models.Transaction{
			AidRequestID: req.ID,
			DonorID:      donorID,
			Amount:       *req.Amount,
			ExternalRef:  charge.TransactionID,
			Provider:     charge.Provider,
			Status:       domain.TxConfirmed,
		}
		result.TransactionID = charge.TransactionID
	}

	if err := s.aidRequestRepo.Fund(ctx, req.ID, donorID, time.Now(), payment); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			if payment != nil {
				logger.WithFields(logrus.Fields{"request_id": req.ID, "ref": payment.ExternalRef}).
					Warn("⚠️ Charge captured but request was funded by someone else")
			}
			return nil, ErrRequestNotOpen
		}
		return nil, err
	}

	funded, err := s.aidRequestRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	result.Request = funded

	publish(s.publisher, realtime.TopicOpenRequests, realtime.EventUpdate, funded.ID, funded.CreatedAt, funded)
	logger.WithFields(logrus.Fields{
		"request_id": funded.ID,
		"donor_id":   donorID,
		"ref":        result.TransactionID,
	}).Info("💰 Aid request funded")
	return result, nil
}
