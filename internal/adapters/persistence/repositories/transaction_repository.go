package repositories

import (
	"context"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new payment transaction repository.
// Inserts go through AidRequestRepository.Fund so they share the status flip.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ListByRequest(ctx context.Context, aidRequestID string) ([]*models.Transaction, error) {
	var list []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("aid_request_id = ?", aidRequestID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// Release marks held payments for a request as released to the recipient
func (r *transactionRepository) Release(ctx context.Context, aidRequestID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("aid_request_id = ?", aidRequestID).
		Where("status = ?", domain.TxConfirmed).
		Updates(map[string]interface{}{
			"status":      domain.TxReleased,
			"released_at": at,
		})
	return res.RowsAffected, res.Error
}

// SumByDonor totals confirmed and released payments made by donorID
func (r *transactionRepository) SumByDonor(ctx context.Context, donorID string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("donor_id = ?", donorID).
		Where("status IN ?", []domain.TransactionStatus{domain.TxConfirmed, domain.TxReleased}).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}
