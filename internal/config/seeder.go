package config

import (
	"fmt"
	"strings"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/pkg/geo"
	"aidmap-api/internal/pkg/logger"

	"gorm.io/gorm"
)

// seedCities are the neighborhoods created on an empty development database
var seedCities = []struct {
	City  string
	State string
}{
	{"New York", "NY"},
	{"Los Angeles", "CA"},
	{"Chicago", "IL"},
	{"Houston", "TX"},
}

// Seeder handles database seeding
type Seeder struct {
	db     *gorm.DB
	cities *geo.CityCenters
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, cities: geo.DefaultCityCenters()}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	logger.L().Info("🌱 Running database seeders...")

	if err := s.seedNeighborhoods(); err != nil {
		logger.WithError(err).Warn("⚠️ Neighborhood seeder skipped")
	}

	logger.L().Info("✅ Database seeding completed")
	return nil
}

// seedNeighborhoods adds one community per seed city when the table is empty
func (s *Seeder) seedNeighborhoods() error {
	var count int64
	if err := s.db.Model(&models.Neighborhood{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, c := range seedCities {
		center, _ := s.cities.Lookup(c.City)
		n := &models.Neighborhood{
			Name:        fmt.Sprintf("%s Community", c.City),
			City:        c.City,
			State:       strings.ToUpper(c.State),
			Latitude:    center.Lat,
			Longitude:   center.Lng,
			RadiusMiles: 5,
		}
		if err := s.db.Create(n).Error; err != nil {
			return err
		}
	}

	logger.WithField("count", len(seedCities)).Info("✅ Neighborhoods seeded")
	return nil
}
