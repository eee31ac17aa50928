package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/pkg/geo"
	"aidmap-api/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultRadiusMiles is the radius given to new neighborhoods
const DefaultRadiusMiles = 5.0

// Neighborhood errors
var (
	ErrNeighborhoodNotFound = errors.New("neighborhood not found")
	ErrNeighborhoodExists   = errors.New("neighborhood already exists in this state")
)

// NeighborhoodService manages neighborhoods and membership
type NeighborhoodService struct {
	neighborhoodRepo repositories.NeighborhoodRepository
	profileRepo      repositories.ProfileRepository
	cities           *geo.CityCenters
}

// NewNeighborhoodService creates a new neighborhood service
func NewNeighborhoodService(
	neighborhoodRepo repositories.NeighborhoodRepository,
	profileRepo repositories.ProfileRepository,
	cities *geo.CityCenters,
) *NeighborhoodService {
	return &NeighborhoodService{
		neighborhoodRepo: neighborhoodRepo,
		profileRepo:      profileRepo,
		cities:           cities,
	}
}

// CreateNeighborhoodInput represents create neighborhood input
type CreateNeighborhoodInput struct {
	Name    string `json:"name" validate:"max=100"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=50"`
	ZipCode string `json:"zip_code" validate:"max=10"`
}

// List returns all neighborhoods ordered by name
func (s *NeighborhoodService) List(ctx context.Context) ([]*models.Neighborhood, error) {
	return s.neighborhoodRepo.List(ctx)
}

// Get returns a neighborhood by ID
func (s *NeighborhoodService) Get(ctx context.Context, id string) (*models.Neighborhood, error) {
	n, err := s.neighborhoodRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNeighborhoodNotFound
		}
		return nil, err
	}
	return n, nil
}

// Create adds a neighborhood centered on its city and joins the creator to it.
// Unknown cities are centered on the fallback coordinate.
func (s *NeighborhoodService) Create(ctx context.Context, creatorID string, input *CreateNeighborhoodInput) (*models.Neighborhood, error) {
	input.City = strings.TrimSpace(input.City)
	input.State = strings.ToUpper(strings.TrimSpace(input.State))
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = fmt.Sprintf("%s Community", input.City)
	}

	exists, err := s.neighborhoodRepo.ExistsByNameAndState(ctx, name, input.State)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNeighborhoodExists
	}

	center, known := s.cities.Lookup(input.City)
	if !known {
		logger.WithFields(logrus.Fields{"city": input.City, "state": input.State}).
			Info("📍 City not in table, using fallback center")
	}

	n := &models.Neighborhood{
		Name:        name,
		City:        input.City,
		State:       input.State,
		ZipCode:     trimmed(&input.ZipCode),
		Latitude:    center.Lat,
		Longitude:   center.Lng,
		RadiusMiles: DefaultRadiusMiles,
		CreatedBy:   &creatorID,
	}
	if err := s.neighborhoodRepo.Create(ctx, n); err != nil {
		return nil, err
	}

	if err := s.Join(ctx, creatorID, n.ID); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"neighborhood_id": n.ID, "name": n.Name}).Info("✅ Neighborhood created")
	return n, nil
}

// Join moves the user into the neighborhood
func (s *NeighborhoodService) Join(ctx context.Context, userID, neighborhoodID string) error {
	if _, err := s.Get(ctx, neighborhoodID); err != nil {
		return err
	}

	if err := s.profileRepo.Update(ctx, userID, map[string]interface{}{"neighborhood_id": neighborhoodID}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}
