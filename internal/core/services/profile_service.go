package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/pkg/logger"

	"gorm.io/gorm"
)

// Profile errors
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// ProfileService manages public profiles and the first-visit welcome flag
type ProfileService struct {
	profileRepo repositories.ProfileRepository
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo repositories.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// UpdateProfileInput is a partial update; nil fields are left untouched
type UpdateProfileInput struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	// Skills is a comma separated list
	Skills *string `json:"skills"`
}

// WelcomeStatus tells the client whether to show the welcome dialog
type WelcomeStatus struct {
	ShowWelcome bool       `json:"show_welcome"`
	SeenAt      *time.Time `json:"seen_at"`
}

// Get returns a profile by user ID
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update applies a partial profile update
func (s *ProfileService) Update(ctx context.Context, userID string, input *UpdateProfileInput) (*models.Profile, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != current.Username {
			taken, err := s.profileRepo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrUsernameTaken
			}
			fields["username"] = username
		}
	}
	if input.Bio != nil {
		fields["bio"] = trimmed(input.Bio)
	}
	if input.Skills != nil {
		// map updates bypass the json serializer
		encoded, err := json.Marshal(ParseSkills(*input.Skills))
		if err != nil {
			return nil, err
		}
		fields["skills"] = string(encoded)
	}

	if len(fields) > 0 {
		if err := s.profileRepo.Update(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}

// WelcomeStatus reports whether the user still needs the welcome dialog
func (s *ProfileService) WelcomeStatus(ctx context.Context, userID string) (*WelcomeStatus, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WelcomeStatus{ShowWelcome: p.WelcomeSeenAt == nil, SeenAt: p.WelcomeSeenAt}, nil
}

// MarkWelcomeSeen records that the welcome dialog was dismissed
func (s *ProfileService) MarkWelcomeSeen(ctx context.Context, userID string) error {
	if err := s.profileRepo.Update(ctx, userID, map[string]interface{}{"welcome_seen_at": time.Now()}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	logger.WithField("user_id", userID).Debug("👋 Welcome dismissed")
	return nil
}

// ParseSkills splits a comma separated list, dropping blanks
func ParseSkills(list string) []string {
	skills := []string{}
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
