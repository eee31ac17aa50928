package repositories

import (
	"context"

	"aidmap-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type neighborhoodRepository struct {
	db *gorm.DB
}

// NewNeighborhoodRepository creates a new neighborhood repository
func NewNeighborhoodRepository(db *gorm.DB) NeighborhoodRepository {
	return &neighborhoodRepository{db: db}
}

func (r *neighborhoodRepository) Create(ctx context.Context, n *models.Neighborhood) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *neighborhoodRepository) GetByID(ctx context.Context, id string) (*models.Neighborhood, error) {
	var n models.Neighborhood
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns all neighborhoods ordered by name
func (r *neighborhoodRepository) List(ctx context.Context) ([]*models.Neighborhood, error) {
	var list []*models.Neighborhood
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *neighborhoodRepository) ExistsByNameAndState(ctx context.Context, name, state string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Neighborhood{}).
		Where("name = ? AND state = ?", name, state).
		Count(&count).Error
	return count > 0, err
}
