package services

import (
	"context"
	"errors"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Admin errors
var (
	ErrCannotBanSelf = errors.New("administrators cannot ban themselves")
)

// AdminService backs the admin panel
type AdminService struct {
	aidRequestRepo repositories.AidRequestRepository
	profileRepo    repositories.ProfileRepository
	authService    *AuthService
	aidService     *AidRequestService
	publisher      realtime.Publisher
}

// NewAdminService creates a new admin service
func NewAdminService(
	aidRequestRepo repositories.AidRequestRepository,
	profileRepo repositories.ProfileRepository,
	authService *AuthService,
	aidService *AidRequestService,
	publisher realtime.Publisher,
) *AdminService {
	return &AdminService{
		aidRequestRepo: aidRequestRepo,
		profileRepo:    profileRepo,
		authService:    authService,
		aidService:     aidService,
		publisher:      publisher,
	}
}

// AdminRequestRow is an aid request joined with its owner
type AdminRequestRow struct {
	*models.AidRequest
	OwnerUsername string `json:"owner_username"`
	OwnerEmail    string `json:"owner_email"`
}

// AdminUserRow is a profile joined with its identity email
type AdminUserRow struct {
	*models.ProfileResponse
	Email  string `json:"email"`
	Banned bool   `json:"banned"`
}

// ListRequests returns requests newest first with owner details
func (s *AdminService) ListRequests(ctx context.Context, status *domain.RequestStatus, offset, limit int) ([]*AdminRequestRow, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, domain.ErrInvalidInput
	}

	requests, total, err := s.aidRequestRepo.List(ctx, repositories.AidRequestFilter{Status: status}, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	ownerIDs := make([]string, 0, len(requests))
	for _, r := range requests {
		ownerIDs = append(ownerIDs, r.UserID)
	}
	profiles, err := s.profileRepo.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, 0, err
	}
	emails, err := s.authService.ListIdentities(ctx, ownerIDs)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]*AdminRequestRow, len(requests))
	for i, r := range requests {
		row := &AdminRequestRow{AidRequest: r, OwnerEmail: emails[r.UserID]}
		if p, ok := profiles[r.UserID]; ok {
			row.OwnerUsername = p.Username
		}
		rows[i] = row
	}
	return rows, total, nil
}

// ListUsers returns profiles newest first joined with identity emails
func (s *AdminService) ListUsers(ctx context.Context, offset, limit int) ([]*AdminUserRow, int64, error) {
	profiles, total, err := s.profileRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	emails, err := s.authService.ListIdentities(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]*AdminUserRow, len(profiles))
	for i, p := range profiles {
		rows[i] = &AdminUserRow{
			ProfileResponse: p.ToResponse(),
			Email:           emails[p.ID],
			Banned:          p.IsBanned(),
		}
	}
	return rows, total, nil
}

// Ban drops a user's reputation so they can no longer post or fund
func (s *AdminService) Ban(ctx context.Context, adminID, userID string) (*models.Profile, error) {
	if adminID == userID {
		return nil, ErrCannotBanSelf
	}
	return s.setReputation(ctx, userID, domain.BannedReputation)
}

// Unban restores a neutral reputation
func (s *AdminService) Unban(ctx context.Context, userID string) (*models.Profile, error) {
	return s.setReputation(ctx, userID, 0)
}

func (s *AdminService) setReputation(ctx context.Context, userID string, score int) (*models.Profile, error) {
	if err := s.profileRepo.Update(ctx, userID, map[string]interface{}{"reputation_score": score}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{"user_id": userID, "reputation": score}).Info("🔨 Reputation changed")
	return s.profileRepo.GetByID(ctx, userID)
}

// SetRequestStatus changes a request's status through the transition rules
func (s *AdminService) SetRequestStatus(ctx context.Context, id string, to domain.RequestStatus) (*models.AidRequest, error) {
	return s.aidService.SetStatus(ctx, id, to)
}

// DeleteRequest soft-deletes a request and withdraws it from the map
func (s *AdminService) DeleteRequest(ctx context.Context, id string) error {
	req, err := s.aidRequestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAidRequestNotFound
		}
		return err
	}

	if err := s.aidRequestRepo.Delete(ctx, id); err != nil {
		return err
	}

	// an update with status cancelled removes the marker from open feeds
	req.Status = domain.StatusCancelled
	publish(s.publisher, realtime.TopicOpenRequests, realtime.EventUpdate, req.ID, req.CreatedAt, req)

	logger.WithField("request_id", id).Warn("🗑️ Aid request deleted by admin")
	return nil
}
