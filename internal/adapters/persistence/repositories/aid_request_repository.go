package repositories

import (
	"context"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/core/domain"

	"gorm.io/gorm"
)

// aidRequestRepository implements AidRequestRepository interface
type aidRequestRepository struct {
	db *gorm.DB
}

// NewAidRequestRepository creates a new aid request repository
func NewAidRequestRepository(db *gorm.DB) AidRequestRepository {
	return &aidRequestRepository{db: db}
}

func (r *aidRequestRepository) Create(ctx context.Context, req *models.AidRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *aidRequestRepository) GetByID(ctx context.Context, id string) (*models.AidRequest, error) {
	var req models.AidRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByStatus returns every request in status, newest first
func (r *aidRequestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*models.AidRequest, error) {
	var list []*models.AidRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *aidRequestRepository) applyFilter(q *gorm.DB, filter AidRequestFilter) *gorm.DB {
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.DonorID != nil {
		q = q.Where("donor_id = ?", *filter.DonorID)
	}
	return q
}

// List lists requests newest first. limit <= 0 returns every match.
func (r *aidRequestRepository) List(ctx context.Context, filter AidRequestFilter, offset, limit int) ([]*models.AidRequest, int64, error) {
	var list []*models.AidRequest
	var total int64

	base := r.applyFilter(r.db.WithContext(ctx).Model(&models.AidRequest{}), filter)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.applyFilter(r.db.WithContext(ctx), filter).Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListParticipating returns requests with a donor where userID is owner or donor
func (r *aidRequestRepository) ListParticipating(ctx context.Context, userID string) ([]*models.AidRequest, error) {
	var list []*models.AidRequest
	err := r.db.WithContext(ctx).
		Where("donor_id IS NOT NULL").
		Where("user_id = ? OR donor_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// ListFundedBefore returns funded or in-progress requests funded before the cutoff
func (r *aidRequestRepository) ListFundedBefore(ctx context.Context, before time.Time) ([]*models.AidRequest, error) {
	var list []*models.AidRequest
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.RequestStatus{domain.StatusFunded, domain.StatusInProgress}).
		Where("funded_at < ?", before).
		Order("funded_at ASC").
		Find(&list).Error
	return list, err
}

func (r *aidRequestRepository) CountByStatus(ctx context.Context, filter AidRequestFilter) (map[domain.RequestStatus]int64, error) {
	var rows []struct {
		Status domain.RequestStatus
		Count  int64
	}
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.AidRequest{}), filter).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.RequestStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *aidRequestRepository) UpdateIf(ctx context.Context, id string, from []domain.RequestStatus, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.AidRequest{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsChanged
	}
	return nil
}

func (r *aidRequestRepository) Fund(ctx context.Context, id, donorID string, fundedAt time.Time, payment *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.AidRequest{}).
			Where("id = ?", id).
			Where("status = ?", domain.StatusOpen).
			Updates(map[string]interface{}{
				"status":    domain.StatusFunded,
				"donor_id":  donorID,
				"funded_at": fundedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRowsChanged
		}

		if payment != nil {
			if err := tx.Create(payment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete soft deletes a request
func (r *aidRequestRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AidRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
