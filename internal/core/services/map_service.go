package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/geo"
	"aidmap-api/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultMapCenter is used when the viewer shares no location
var DefaultMapCenter = geo.Coordinate{Lat: 40.7128, Lng: -74.0060}

// Map errors
var (
	ErrSignInRequired = errors.New("sign in required")
)

// MapOptions tune Snapshot
type MapOptions struct {
	// ExactLocations disables the privacy offset
	ExactLocations bool
	// LocalOnly limits markers to the viewer's neighborhood radius
	LocalOnly bool
}

// Viewer is whoever is looking at the map. Both fields are optional.
type Viewer struct {
	UserID   string
	Location *geo.Coordinate
}

// Marker is one aid request pin
type Marker struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Category       domain.Category       `json:"category"`
	Urgency        domain.Urgency        `json:"urgency"`
	AssistanceType domain.AssistanceType `json:"assistance_type"`
	Amount         *decimal.Decimal      `json:"amount"`
	Position       geo.Coordinate        `json:"position"`
	CreatedAt      time.Time             `json:"created_at"`
}

// MapState is everything the map view renders
type MapState struct {
	Center         geo.Coordinate  `json:"center"`
	ViewerLocation *geo.Coordinate `json:"viewer_location,omitempty"`
	Markers        []Marker        `json:"markers"`
	CanPost        bool            `json:"can_post"`
	Stale          bool            `json:"stale"`
}

// PostDraft pre-fills the post form after a click on the map
type PostDraft struct {
	Latitude       float64               `json:"location_lat"`
	Longitude      float64               `json:"location_lng"`
	Category       domain.Category       `json:"category"`
	Urgency        domain.Urgency        `json:"urgency"`
	AssistanceType domain.AssistanceType `json:"assistance_type"`
}

// RequestDetail is the read-only request panel. ExactLocation is false when
// the position carries the privacy offset.
type RequestDetail struct {
	Request          *models.AidRequest `json:"request"`
	ExactLocation    bool               `json:"exact_location"`
	OwnerUsername    string             `json:"owner_username"`
	OwnerVerified    bool               `json:"owner_verified"`
	NeighborhoodName *string            `json:"neighborhood_name"`
	CanFund          bool               `json:"can_fund"`
}

// visibleTo returns req as viewerID sees it. Participants and administrators
// get the stored row; everyone else gets an offset position and no address.
func visibleTo(req *models.AidRequest, viewerID string, isAdmin bool, offsetter *geo.Offsetter) (*models.AidRequest, bool) {
	if isAdmin || (viewerID != "" && req.IsParticipant(viewerID)) {
		return req, true
	}

	public := *req
	pos := offsetter.Apply(geo.Coordinate{Lat: req.Latitude, Lng: req.Longitude})
	public.Latitude, public.Longitude = pos.Lat, pos.Lng
	public.Address = nil
	return &public, false
}

// MapService builds the map view over open aid requests
type MapService struct {
	aidRequestRepo   repositories.AidRequestRepository
	profileRepo      repositories.ProfileRepository
	neighborhoodRepo repositories.NeighborhoodRepository
	offsetter        *geo.Offsetter

	mu   sync.Mutex
	open []*models.AidRequest
}

// NewMapService creates a new map service
func NewMapService(
	aidRequestRepo repositories.AidRequestRepository,
	profileRepo repositories.ProfileRepository,
	neighborhoodRepo repositories.NeighborhoodRepository,
	offsetter *geo.Offsetter,
) *MapService {
	return &MapService{
		aidRequestRepo:   aidRequestRepo,
		profileRepo:      profileRepo,
		neighborhoodRepo: neighborhoodRepo,
		offsetter:        offsetter,
	}
}

// LoadOpenRequests returns every open request newest first. On a failed
// load the last good list is returned with stale set.
func (s *MapService) LoadOpenRequests(ctx context.Context) (list []*models.AidRequest, stale bool) {
	fresh, err := s.aidRequestRepo.ListByStatus(ctx, domain.StatusOpen)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		logger.WithError(err).WithField("cached", len(s.open)).Error("❌ Failed to load open aid requests")
		return append([]*models.AidRequest(nil), s.open...), true
	}

	s.open = fresh
	return append([]*models.AidRequest(nil), fresh...), false
}

// LoadLocalRequests returns open requests inside a neighborhood's radius
func (s *MapService) LoadLocalRequests(ctx context.Context, neighborhoodID string) ([]*models.AidRequest, bool, error) {
	n, err := s.neighborhoodRepo.GetByID(ctx, neighborhoodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrNeighborhoodNotFound
		}
		return nil, false, err
	}

	all, stale := s.LoadOpenRequests(ctx)
	center := geo.Coordinate{Lat: n.Latitude, Lng: n.Longitude}

	local := make([]*models.AidRequest, 0, len(all))
	for _, req := range all {
		if geo.WithinRadius(center, geo.Coordinate{Lat: req.Latitude, Lng: req.Longitude}, n.RadiusMiles) {
			local = append(local, req)
		}
	}
	return local, stale, nil
}

// Snapshot builds the map for viewer
func (s *MapService) Snapshot(ctx context.Context, viewer Viewer, opts MapOptions) (*MapState, error) {
	state := &MapState{Center: DefaultMapCenter, Markers: []Marker{}}

	if viewer.Location != nil {
		if viewer.Location.Valid() {
			loc := *viewer.Location
			state.ViewerLocation = &loc
			state.Center = loc
		} else {
			logger.WithFields(logrus.Fields{"lat": viewer.Location.Lat, "lng": viewer.Location.Lng}).
				Warn("⚠️ Ignoring invalid viewer location")
		}
	}

	var profile *models.Profile
	if viewer.UserID != "" {
		p, err := s.profileRepo.GetByID(ctx, viewer.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		profile = p
	}
	state.CanPost = profile != nil && !profile.IsBanned()

	var requests []*models.AidRequest
	if opts.LocalOnly && profile != nil && profile.NeighborhoodID != nil {
		local, stale, err := s.LoadLocalRequests(ctx, *profile.NeighborhoodID)
		if err != nil {
			return nil, err
		}
		requests, state.Stale = local, stale
	} else {
		requests, state.Stale = s.LoadOpenRequests(ctx)
	}

	for _, req := range requests {
		pos := geo.Coordinate{Lat: req.Latitude, Lng: req.Longitude}
		if !opts.ExactLocations {
			pos = s.offsetter.Apply(pos)
		}
		state.Markers = append(state.Markers, Marker{
			ID:             req.ID,
			Title:          req.Title,
			Category:       req.Category,
			Urgency:        req.Urgency,
			AssistanceType: req.AssistanceType,
			Amount:         req.Amount,
			Position:       pos,
			CreatedAt:      req.CreatedAt,
		})
	}
	return state, nil
}

// BeginPost starts a post at a clicked coordinate
func (s *MapService) BeginPost(ctx context.Context, viewerID string, lat, lng float64) (*PostDraft, error) {
	if viewerID == "" {
		return nil, ErrSignInRequired
	}
	if !(geo.Coordinate{Lat: lat, Lng: lng}).Valid() {
		return nil, ErrInvalidLocation
	}

	profile, err := s.profileRepo.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if profile.IsBanned() {
		return nil, ErrPostingBlocked
	}

	return &PostDraft{
		Latitude:       lat,
		Longitude:      lng,
		Category:       domain.CategoryFood,
		Urgency:        domain.UrgencyMedium,
		AssistanceType: domain.AssistanceMonetary,
	}, nil
}

// Detail returns the request panel for viewerID, who may be anonymous
func (s *MapService) Detail(ctx context.Context, viewerID string, isAdmin bool, requestID string) (*RequestDetail, error) {
	req, err := s.aidRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAidRequestNotFound
		}
		return nil, err
	}

	detail := &RequestDetail{
		CanFund: viewerID != "" && viewerID != req.UserID && req.Status == domain.StatusOpen,
	}
	detail.Request, detail.ExactLocation = visibleTo(req, viewerID, isAdmin, s.offsetter)

	owner, err := s.profileRepo.GetByID(ctx, req.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if owner != nil {
		detail.OwnerUsername = owner.Username
		detail.OwnerVerified = owner.IsVerified
		if owner.NeighborhoodID != nil {
			if n, err := s.neighborhoodRepo.GetByID(ctx, *owner.NeighborhoodID); err == nil {
				detail.NeighborhoodName = &n.Name
			}
		}
	}
	return detail, nil
}
