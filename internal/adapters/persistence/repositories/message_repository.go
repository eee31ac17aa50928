package repositories

import (
	"context"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Community chat
// ============================================================

type communityMessageRepository struct {
	db *gorm.DB
}

// NewCommunityMessageRepository creates a new community message repository
func NewCommunityMessageRepository(db *gorm.DB) CommunityMessageRepository {
	return &communityMessageRepository{db: db}
}

func (r *communityMessageRepository) Create(ctx context.Context, msg *models.CommunityMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *communityMessageRepository) GetByID(ctx context.Context, id string) (*models.CommunityMessage, error) {
	var msg models.CommunityMessage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByNeighborhood returns the chat oldest first, optionally filtered by type
func (r *communityMessageRepository) ListByNeighborhood(ctx context.Context, neighborhoodID string, messageType *domain.MessageType) ([]*models.CommunityMessage, error) {
	var list []*models.CommunityMessage
	q := r.db.WithContext(ctx).Where("neighborhood_id = ?", neighborhoodID)
	if messageType != nil {
		q = q.Where("message_type = ?", *messageType)
	}
	err := q.Order("created_at ASC").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *communityMessageRepository) MarkResolved(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.CommunityMessage{}).
		Where("id = ?", id).
		Update("is_resolved", true).Error
}

// ============================================================
// Direct messages
// ============================================================

type directMessageRepository struct {
	db *gorm.DB
}

// NewDirectMessageRepository creates a new direct message repository
func NewDirectMessageRepository(db *gorm.DB) DirectMessageRepository {
	return &directMessageRepository{db: db}
}

func (r *directMessageRepository) Create(ctx context.Context, msg *models.DirectMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *directMessageRepository) GetByID(ctx context.Context, id string) (*models.DirectMessage, error) {
	var msg models.DirectMessage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListForUser returns every message userID sent or received, newest first
func (r *directMessageRepository) ListForUser(ctx context.Context, userID string) ([]*models.DirectMessage, error) {
	var list []*models.DirectMessage
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// Thread returns the conversation between two users oldest first
func (r *directMessageRepository) Thread(ctx context.Context, userID, partnerID string) ([]*models.DirectMessage, error) {
	var list []*models.DirectMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, partnerID, partnerID, userID).
		Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	return list, err
}

// MarkRead flags every unread message from senderID to receiverID as read
func (r *directMessageRepository) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// ============================================================
// Request threads
// ============================================================

type requestMessageRepository struct {
	db *gorm.DB
}

// NewRequestMessageRepository creates a new request thread repository
func NewRequestMessageRepository(db *gorm.DB) RequestMessageRepository {
	return &requestMessageRepository{db: db}
}

func (r *requestMessageRepository) Create(ctx context.Context, msg *models.RequestMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *requestMessageRepository) ListByRequest(ctx context.Context, aidRequestID string) ([]*models.RequestMessage, error) {
	var list []*models.RequestMessage
	err := r.db.WithContext(ctx).
		Where("aid_request_id = ?", aidRequestID).
		Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	return list, err
}

// LatestByRequests returns the newest message of each listed thread
func (r *requestMessageRepository) LatestByRequests(ctx context.Context, aidRequestIDs []string) (map[string]*models.RequestMessage, error) {
	out := make(map[string]*models.RequestMessage, len(aidRequestIDs))
	if len(aidRequestIDs) == 0 {
		return out, nil
	}

	var list []*models.RequestMessage
	err := r.db.WithContext(ctx).
		Where("aid_request_id IN ?", aidRequestIDs).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		if _, seen := out[m.AidRequestID]; !seen {
			out[m.AidRequestID] = m
		}
	}
	return out, nil
}
