package repositories

import (
	"context"
	"errors"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ErrNoRowsChanged is returned by conditional updates whose guard no longer holds
var ErrNoRowsChanged = errors.New("no rows matched the update condition")

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProfileRepository defines profile repository interface
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Profile, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	List(ctx context.Context, offset, limit int) ([]*models.Profile, int64, error)
}

// NeighborhoodRepository defines neighborhood repository interface
type NeighborhoodRepository interface {
	Create(ctx context.Context, n *models.Neighborhood) error
	GetByID(ctx context.Context, id string) (*models.Neighborhood, error)
	List(ctx context.Context) ([]*models.Neighborhood, error)
	ExistsByNameAndState(ctx context.Context, name, state string) (bool, error)
}

// AidRequestFilter narrows admin and dashboard listings
type AidRequestFilter struct {
	Status  *domain.RequestStatus
	UserID  *string
	DonorID *string
}

// AidRequestRepository defines aid request repository interface
type AidRequestRepository interface {
	Create(ctx context.Context, req *models.AidRequest) error
	GetByID(ctx context.Context, id string) (*models.AidRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*models.AidRequest, error)
	List(ctx context.Context, filter AidRequestFilter, offset, limit int) ([]*models.AidRequest, int64, error)
	ListParticipating(ctx context.Context, userID string) ([]*models.AidRequest, error)
	ListFundedBefore(ctx context.Context, before time.Time) ([]*models.AidRequest, error)
	CountByStatus(ctx context.Context, filter AidRequestFilter) (map[domain.RequestStatus]int64, error)
	// UpdateIf applies fields only while the row is in one of the given
	// statuses. ErrNoRowsChanged means the guard failed.
	UpdateIf(ctx context.Context, id string, from []domain.RequestStatus, fields map[string]interface{}) error
	// Fund flips an open request to funded and records the payment in one
	// database transaction. payment may be nil for service offers.
	Fund(ctx context.Context, id, donorID string, fundedAt time.Time, payment *models.Transaction) error
	Delete(ctx context.Context, id string) error
}

// TransactionRepository defines payment transaction repository interface
type TransactionRepository interface {
	ListByRequest(ctx context.Context, aidRequestID string) ([]*models.Transaction, error)
	Release(ctx context.Context, aidRequestID string, at time.Time) (int64, error)
	SumByDonor(ctx context.Context, donorID string) (decimal.Decimal, error)
}

// CommunityMessageRepository defines community chat repository interface
type CommunityMessageRepository interface {
	Create(ctx context.Context, msg *models.CommunityMessage) error
	GetByID(ctx context.Context, id string) (*models.CommunityMessage, error)
	ListByNeighborhood(ctx context.Context, neighborhoodID string, messageType *domain.MessageType) ([]*models.CommunityMessage, error)
	MarkResolved(ctx context.Context, id string) error
}

// DirectMessageRepository defines direct message repository interface
type DirectMessageRepository interface {
	Create(ctx context.Context, msg *models.DirectMessage) error
	GetByID(ctx context.Context, id string) (*models.DirectMessage, error)
	ListForUser(ctx context.Context, userID string) ([]*models.DirectMessage, error)
	Thread(ctx context.Context, userID, partnerID string) ([]*models.DirectMessage, error)
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)
}

// RequestMessageRepository defines per-request thread repository interface
type RequestMessageRepository interface {
	Create(ctx context.Context, msg *models.RequestMessage) error
	ListByRequest(ctx context.Context, aidRequestID string) ([]*models.RequestMessage, error)
	LatestByRequests(ctx context.Context, aidRequestIDs []string) (map[string]*models.RequestMessage, error)
}

// VerificationRepository defines verification repository interface
type VerificationRepository interface {
	Create(ctx context.Context, v *models.UserVerification) error
	GetByID(ctx context.Context, id string) (*models.UserVerification, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserVerification, error)
	ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*models.UserVerification, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

// ReportRepository defines message report repository interface
type ReportRepository interface {
	Create(ctx context.Context, r *models.MessageReport) error
	GetByID(ctx context.Context, id string) (*models.MessageReport, error)
	List(ctx context.Context, status *domain.ReportStatus) ([]*models.MessageReport, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}
