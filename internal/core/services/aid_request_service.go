package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/adapters/storage"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/geo"
	"aidmap-api/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Aid request errors
var (
	ErrAidRequestNotFound = errors.New("aid request not found")
	ErrNotRequestOwner    = errors.New("only the requester can change this request")
	ErrNotParticipant     = errors.New("only the requester or donor can do this")
	ErrRequestClosed      = errors.New("aid request is already closed")
	ErrRequestNotOpen     = errors.New("aid request is no longer open")
	ErrRequestNotFunded   = errors.New("aid request has not been funded")
	ErrPostingBlocked     = errors.New("posting is disabled for this account")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidUrgency     = errors.New("invalid urgency")
	ErrInvalidLocation    = errors.New("invalid location")
	ErrInvalidFulfillment = errors.New("fulfillment status must be fulfilled or unfulfilled")
	ErrDonorRequired      = errors.New("a request without a donor can only be completed or cancelled")
)

var nonTerminalStatuses = []domain.RequestStatus{
	domain.StatusOpen, domain.StatusFunded, domain.StatusInProgress,
}

// AidRequestService owns the aid request lifecycle
type AidRequestService struct {
	aidRequestRepo  repositories.AidRequestRepository
	profileRepo     repositories.ProfileRepository
	transactionRepo repositories.TransactionRepository
	provider        PaymentProvider
	proofStore      storage.ProofStore
	publisher       realtime.Publisher
	offsetter       *geo.Offsetter
}

// NewAidRequestService creates a new aid request service. proofStore and
// publisher may be nil.
func NewAidRequestService(
	aidRequestRepo repositories.AidRequestRepository,
	profileRepo repositories.ProfileRepository,
	transactionRepo repositories.TransactionRepository,
	provider PaymentProvider,
	proofStore storage.ProofStore,
	publisher realtime.Publisher,
	offsetter *geo.Offsetter,
) *AidRequestService {
	return &AidRequestService{
		aidRequestRepo:  aidRequestRepo,
		profileRepo:     profileRepo,
		transactionRepo: transactionRepo,
		provider:        provider,
		proofStore:      proofStore,
		publisher:       publisher,
		offsetter:       offsetter,
	}
}

// PostAidRequestInput represents a new aid request
type PostAidRequestInput struct {
	Title              string                `json:"title" validate:"required,max=200"`
	Description        string                `json:"description" validate:"required"`
	Category           domain.Category       `json:"category"`
	Urgency            domain.Urgency        `json:"urgency"`
	AssistanceType     domain.AssistanceType `json:"assistance_type"`
	Amount             *decimal.Decimal      `json:"amount"`
	ServiceDescription *string               `json:"service_description"`
	Latitude           float64               `json:"location_lat"`
	Longitude          float64               `json:"location_lng"`
	Address            *string               `json:"address" validate:"omitempty,max=255"`
}

// EditAidRequestInput is a partial edit; nil fields keep their value
type EditAidRequestInput struct {
	Title              *string                `json:"title" validate:"omitempty,max=200"`
	Description        *string                `json:"description"`
	Category           *domain.Category       `json:"category"`
	Urgency            *domain.Urgency        `json:"urgency"`
	AssistanceType     *domain.AssistanceType `json:"assistance_type"`
	Amount             *decimal.Decimal       `json:"amount"`
	ServiceDescription *string                `json:"service_description"`
	Address            *string                `json:"address" validate:"omitempty,max=255"`
}

// CloseAidRequestInput records how a request ended
type CloseAidRequestInput struct {
	FulfillmentStatus domain.FulfillmentStatus `json:"fulfillment_status"`
	ClosureNotes      *string                  `json:"closure_notes"`
}

func checkRequestFields(category domain.Category, urgency domain.Urgency, kind domain.AssistanceType, amount *decimal.Decimal, service *string) error {
	if !category.Valid() {
		return ErrInvalidCategory
	}
	if !urgency.Valid() {
		return ErrInvalidUrgency
	}
	return domain.ValidateAssistance(kind, amount, service)
}

// Post creates an open aid request for author
func (s *AidRequestService) Post(ctx context.Context, authorID string, input *PostAidRequestInput) (*models.AidRequest, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Category == "" {
		input.Category = domain.CategoryFood
	}
	if input.Urgency == "" {
		input.Urgency = domain.UrgencyMedium
	}
	if input.AssistanceType == "" {
		input.AssistanceType = domain.AssistanceMonetary
	}
	input.ServiceDescription = trimmed(input.ServiceDescription)

	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := checkRequestFields(input.Category, input.Urgency, input.AssistanceType, input.Amount, input.ServiceDescription); err != nil {
		return nil, err
	}
	if !(geo.Coordinate{Lat: input.Latitude, Lng: input.Longitude}).Valid() {
		return nil, ErrInvalidLocation
	}

	author, err := s.profileRepo.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if author.IsBanned() {
		return nil, ErrPostingBlocked
	}

	req := &models.AidRequest{
		UserID:             authorID,
		Title:              input.Title,
		Description:        input.Description,
		Category:           input.Category,
		Urgency:            input.Urgency,
		AssistanceType:     input.AssistanceType,
		ServiceDescription: input.ServiceDescription,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		Address:            trimmed(input.Address),
		Status:             domain.StatusOpen,
	}
	if input.AssistanceType.NeedsMoney() {
		amount := input.Amount.Round(2)
		req.Amount = &amount
	}

	if err := s.aidRequestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	publish(s.publisher, realtime.TopicOpenRequests, realtime.EventInsert, req.ID, req.CreatedAt, req)
	logger.WithFields(logrus.Fields{"request_id": req.ID, "user_id": authorID}).Info("✅ Aid request posted")
	return req, nil
}

// Get returns a request by ID
func (s *AidRequestService) Get(ctx context.Context, id string) (*models.AidRequest, error) {
	req, err := s.aidRequestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAidRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// View returns a request as viewerID may see it, who may be anonymous
func (s *AidRequestService) View(ctx context.Context, viewerID string, isAdmin bool, id string) (*models.AidRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	visible, _ := visibleTo(req, viewerID, isAdmin, s.offsetter)
	return visible, nil
}

func samePricing(a, b *models.AidRequest) bool {
	if a.AssistanceType != b.AssistanceType {
		return false
	}
	if (a.Amount == nil) != (b.Amount == nil) || (a.Amount != nil && !a.Amount.Equal(*b.Amount)) {
		return false
	}
	if (a.ServiceDescription == nil) != (b.ServiceDescription == nil) {
		return false
	}
	return a.ServiceDescription == nil || *a.ServiceDescription == *b.ServiceDescription
}

// Edit lets the owner change a request that is still active. What was asked
// for (assistance type, amount and service) is fixed once it leaves open.
func (s *AidRequestService) Edit(ctx context.Context, userID, id string, input *EditAidRequestInput) (*models.AidRequest, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, ErrNotRequestOwner
	}
	if req.Status.Terminal() {
		return nil, ErrRequestClosed
	}

	merged := *req
	if input.Title != nil {
		merged.Title = strings.TrimSpace(*input.Title)
		if merged.Title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidation)
		}
	}
	if input.Description != nil {
		merged.Description = strings.TrimSpace(*input.Description)
		if merged.Description == "" {
			return nil, fmt.Errorf("%w: description is required", ErrValidation)
		}
	}
	if input.Category != nil {
		merged.Category = *input.Category
	}
	if input.Urgency != nil {
		merged.Urgency = *input.Urgency
	}
	if input.AssistanceType != nil {
		merged.AssistanceType = *input.AssistanceType
	}
	if input.Amount != nil {
		amount := input.Amount.Round(2)
		merged.Amount = &amount
	}
	if input.ServiceDescription != nil {
		merged.ServiceDescription = trimmed(input.ServiceDescription)
	}
	if input.Address != nil {
		merged.Address = trimmed(input.Address)
	}
	if !merged.AssistanceType.NeedsMoney() {
		merged.Amount = nil
	}
	if !merged.AssistanceType.NeedsService() {
		merged.ServiceDescription = nil
	}

	if err := checkRequestFields(merged.Category, merged.Urgency, merged.AssistanceType, merged.Amount, merged.ServiceDescription); err != nil {
		return nil, err
	}

	allowed, lostRace := nonTerminalStatuses, ErrRequestClosed
	if !samePricing(req, &merged) {
		if req.Status != domain.StatusOpen {
			return nil, ErrRequestNotOpen
		}
		allowed, lostRace = []domain.RequestStatus{domain.StatusOpen}, ErrRequestNotOpen
	}

	fields := map[string]interface{}{
		"title":               merged.Title,
		"description":         merged.Description,
		"category":            merged.Category,
		"urgency":             merged.Urgency,
		"assistance_type":     merged.AssistanceType,
		"amount":              merged.Amount,
		"service_description": merged.ServiceDescription,
		"address":             merged.Address,
		"edit_count":          gorm.Expr("edit_count + ?", 1),
		"last_edited_at":      time.Now(),
	}
	if err := s.aidRequestRepo.UpdateIf(ctx, id, allowed, fields); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			return nil, lostRace
		}
		return nil, err
	}

	return s.changed(ctx, id)
}

// Close completes a request on behalf of its owner or an administrator and
// releases any held funds.
func (s *AidRequestService) Close(ctx context.Context, actorID string, isAdmin bool, id string, input *CloseAidRequestInput) (*models.AidRequest, error) {
	if input.FulfillmentStatus == "" {
		input.FulfillmentStatus = domain.FulfillmentFulfilled
	}
	if !input.FulfillmentStatus.Valid() {
		return nil, ErrInvalidFulfillment
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != actorID && !isAdmin {
		return nil, ErrNotRequestOwner
	}
	if !domain.CanTransition(req.Status, domain.StatusCompleted) {
		return nil, ErrRequestClosed
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":             domain.StatusCompleted,
		"completed_at":       now,
		"closed_at":          now,
		"fulfillment_status": input.FulfillmentStatus,
		"closure_notes":      trimmed(input.ClosureNotes),
	}
	if err := s.aidRequestRepo.UpdateIf(ctx, id, []domain.RequestStatus{req.Status}, fields); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			return nil, ErrRequestClosed
		}
		return nil, err
	}

	s.releaseFunds(ctx, req)

	logger.WithFields(logrus.Fields{
		"request_id":  id,
		"fulfillment": input.FulfillmentStatus,
	}).Info("✅ Aid request closed")
	return s.changed(ctx, id)
}

// ConfirmReceipt lets the owner mark a funded request as received
func (s *AidRequestService) ConfirmReceipt(ctx context.Context, userID, id string) (*models.AidRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, ErrNotRequestOwner
	}

	funded := []domain.RequestStatus{domain.StatusFunded, domain.StatusInProgress}
	if req.Status != domain.StatusFunded && req.Status != domain.StatusInProgress {
		return nil, ErrRequestNotFunded
	}

	fields := map[string]interface{}{
		"status":       domain.StatusCompleted,
		"completed_at": time.Now(),
	}
	if err := s.aidRequestRepo.UpdateIf(ctx, id, funded, fields); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			return nil, ErrRequestNotFunded
		}
		return nil, err
	}

	s.releaseFunds(ctx, req)

	logger.WithField("request_id", id).Info("✅ Receipt confirmed")
	return s.changed(ctx, id)
}

// StartProgress moves a funded request to in progress
func (s *AidRequestService) StartProgress(ctx context.Context, userID, id string) (*models.AidRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if req.Status != domain.StatusFunded {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.aidRequestRepo.UpdateIf(ctx, id, []domain.RequestStatus{domain.StatusFunded},
		map[string]interface{}{"status": domain.StatusInProgress}); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	return s.changed(ctx, id)
}

// Cancel withdraws a request that has not finished
func (s *AidRequestService) Cancel(ctx context.Context, actorID string, isAdmin bool, id string) (*models.AidRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != actorID && !isAdmin {
		return nil, ErrNotRequestOwner
	}
	if req.Status.Terminal() {
		return nil, ErrRequestClosed
	}

	fields := map[string]interface{}{
		"status":    domain.StatusCancelled,
		"closed_at": time.Now(),
	}
	if err := s.aidRequestRepo.UpdateIf(ctx, id, nonTerminalStatuses, fields); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			return nil, ErrRequestClosed
		}
		return nil, err
	}

	if req.DonorID != nil {
		logger.WithFields(logrus.Fields{"request_id": id, "donor_id": *req.DonorID}).
			Warn("⚠️ Funded request cancelled, held funds stay confirmed")
	}
	return s.changed(ctx, id)
}

// SetStatus applies an administrative status change through the transition rules
func (s *AidRequestService) SetStatus(ctx context.Context, id string, to domain.RequestStatus) (*models.AidRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(req.Status, to) {
		return nil, domain.ErrInvalidTransition
	}
	if req.DonorID == nil && (to == domain.StatusFunded || to == domain.StatusInProgress) {
		return nil, ErrDonorRequired
	}

	now := time.Now()
	fields := map[string]interface{}{"status": to}
	switch to {
	case domain.StatusFunded:
		fields["funded_at"] = now
	case domain.StatusCompleted:
		fields["completed_at"] = now
		fields["closed_at"] = now
	case domain.StatusCancelled:
		fields["closed_at"] = now
	}

	if err := s.aidRequestRepo.UpdateIf(ctx, id, []domain.RequestStatus{req.Status}, fields); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	if to == domain.StatusCompleted {
		s.releaseFunds(ctx, req)
	}
	return s.changed(ctx, id)
}

// AttachProof uploads a proof-of-delivery file and stores its URL
func (s *AidRequestService) AttachProof(ctx context.Context, userID, id, filename, contentType string, body io.Reader) (*models.AidRequest, error) {
	if s.proofStore == nil {
		return nil, storage.ErrStorageDisabled
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if req.Status == domain.StatusCancelled {
		return nil, ErrRequestClosed
	}

	key := fmt.Sprintf("proofs/%s/%d%s", id, time.Now().UnixNano(), strings.ToLower(path.Ext(filename)))
	url, err := s.proofStore.Put(ctx, key, body, contentType)
	if err != nil {
		return nil, err
	}

	allowed := []domain.RequestStatus{domain.StatusOpen, domain.StatusFunded, domain.StatusInProgress, domain.StatusCompleted}
	if err := s.aidRequestRepo.UpdateIf(ctx, id, allowed, map[string]interface{}{"proof_of_delivery_url": url}); err != nil {
		if errors.Is(err, repositories.ErrNoRowsChanged) {
			return nil, ErrRequestClosed
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{"request_id": id, "url": url}).Info("📎 Proof of delivery attached")
	return s.changed(ctx, id)
}

// ListMine returns the user's own requests newest first
func (s *AidRequestService) ListMine(ctx context.Context, userID string) ([]*models.AidRequest, error) {
	list, _, err := s.aidRequestRepo.List(ctx, repositories.AidRequestFilter{UserID: &userID}, 0, 0)
	return list, err
}

// ListFundedBy returns requests the user funded newest first
func (s *AidRequestService) ListFundedBy(ctx context.Context, donorID string) ([]*models.AidRequest, error) {
	list, _, err := s.aidRequestRepo.List(ctx, repositories.AidRequestFilter{DonorID: &donorID}, 0, 0)
	return list, err
}

// releaseFunds pays out held money once a funded request completes
func (s *AidRequestService) releaseFunds(ctx context.Context, req *models.AidRequest) {
	if req.Status != domain.StatusFunded && req.Status != domain.StatusInProgress {
		return
	}

	if s.provider != nil && req.AssistanceType.NeedsMoney() {
		res, err := s.provider.Release(ctx, req.ID)
		if err != nil {
			logger.WithError(err).WithField("request_id", req.ID).Error("❌ Escrow release failed")
			return
		}
		logger.WithFields(logrus.Fields{"request_id": req.ID, "ref": res.TransactionID}).Info("💸 Escrow released")
	}

	if _, err := s.transactionRepo.Release(ctx, req.ID, time.Now()); err != nil {
		logger.WithError(err).WithField("request_id", req.ID).Error("❌ Failed to mark transactions released")
	}
}

// changed reloads a request after a write and announces it on the open feed
func (s *AidRequestService) changed(ctx context.Context, id string) (*models.AidRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(s.publisher, realtime.TopicOpenRequests, realtime.EventUpdate, req.ID, req.CreatedAt, req)
	return req, nil
}
