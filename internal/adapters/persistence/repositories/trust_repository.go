package repositories

import (
	"context"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/core/domain"

	"gorm.io/gorm"
)

type verificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(ctx context.Context, v *models.UserVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *verificationRepository) GetByID(ctx context.Context, id string) (*models.UserVerification, error) {
	var v models.UserVerification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *verificationRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserVerification, error) {
	var list []*models.UserVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *verificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*models.UserVerification, error) {
	var list []*models.UserVerification
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *verificationRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.UserVerification{}).Where("id = ?", id).Updates(fields).Error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new message report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.MessageReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.MessageReport, error) {
	var report models.MessageReport
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports newest first, optionally filtered by status
func (r *reportRepository) List(ctx context.Context, status *domain.ReportStatus) ([]*models.MessageReport, error) {
	var list []*models.MessageReport
	q := r.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *reportRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.MessageReport{}).Where("id = ?", id).Updates(fields).Error
}
