package services

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyAidRequests fails ListByStatus while broken is set
type flakyAidRequests struct {
	repositories.AidRequestRepository
	broken atomic.Bool
}

func (f *flakyAidRequests) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*models.AidRequest, error) {
	if f.broken.Load() {
		return nil, errors.New("connection refused")
	}
	return f.AidRequestRepository.ListByStatus(ctx, status)
}

func TestSnapshotAnonymousViewer(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	req := env.postGroceries(t, owner)

	state, err := env.maps.Snapshot(context.Background(), Viewer{}, MapOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultMapCenter, state.Center)
	assert.Nil(t, state.ViewerLocation)
	assert.False(t, state.CanPost)
	require.Len(t, state.Markers, 1)

	m := state.Markers[0]
	assert.Equal(t, req.ID, m.ID)
	assert.InDelta(t, req.Latitude+0.00125, m.Position.Lat, 1e-9)
	assert.InDelta(t, req.Longitude+0.00125, m.Position.Lng, 1e-9)
	assert.LessOrEqual(t, math.Abs(m.Position.Lat-req.Latitude), geo.MaxPrivacyOffset+1e-12)
}

func TestSnapshotExactLocationsAndViewer(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	req := env.postGroceries(t, owner)

	here := geo.Coordinate{Lat: 40.75, Lng: -73.98}
	state, err := env.maps.Snapshot(context.Background(), Viewer{UserID: owner, Location: &here}, MapOptions{ExactLocations: true})
	require.NoError(t, err)

	assert.True(t, state.CanPost)
	require.NotNil(t, state.ViewerLocation)
	assert.Equal(t, here, *state.ViewerLocation)
	assert.Equal(t, here, state.Center)
	require.Len(t, state.Markers, 1)
	assert.Equal(t, req.Latitude, state.Markers[0].Position.Lat)
	assert.Equal(t, req.Longitude, state.Markers[0].Position.Lng)
}

func TestSnapshotIgnoresInvalidViewerLocation(t *testing.T) {
	env := newTestEnv(t)

	bad := geo.Coordinate{Lat: 123, Lng: 0}
	state, err := env.maps.Snapshot(context.Background(), Viewer{Location: &bad}, MapOptions{})
	require.NoError(t, err)
	assert.Nil(t, state.ViewerLocation)
	assert.Equal(t, DefaultMapCenter, state.Center)
}

func TestSnapshotLocalOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	viewer := env.register(t, "sam")

	n, err := env.neighborhoods.Create(ctx, viewer, &CreateNeighborhoodInput{City: "New York", State: "ny"})
	require.NoError(t, err)

	near := env.postGroceries(t, owner)
	far, err := env.aid.Post(ctx, owner, &PostAidRequestInput{
		Title:          "Far away",
		Description:    "Los Angeles",
		AssistanceType: domain.AssistanceMonetary,
		Amount:         near.Amount,
		Latitude:       34.0522,
		Longitude:      -118.2437,
	})
	require.NoError(t, err)

	local, _, err := env.maps.LoadLocalRequests(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, local, 1)
	assert.Equal(t, near.ID, local[0].ID)

	all, err := env.maps.Snapshot(ctx, Viewer{UserID: viewer}, MapOptions{})
	require.NoError(t, err)
	assert.Len(t, all.Markers, 2)

	scoped, err := env.maps.Snapshot(ctx, Viewer{UserID: viewer}, MapOptions{LocalOnly: true})
	require.NoError(t, err)
	require.Len(t, scoped.Markers, 1)
	assert.NotEqual(t, far.ID, scoped.Markers[0].ID)
}

func TestLoadOpenRequestsKeepsStaleSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	env.postGroceries(t, owner)

	flaky := &flakyAidRequests{AidRequestRepository: env.aidRequestRepo}
	svc := NewMapService(flaky, env.profileRepo, nil, geo.NewOffsetter())

	flaky.broken.Store(true)
	list, stale := svc.LoadOpenRequests(ctx)
	assert.True(t, stale)
	assert.Empty(t, list)

	flaky.broken.Store(false)
	list, stale = svc.LoadOpenRequests(ctx)
	assert.False(t, stale)
	require.Len(t, list, 1)

	env.postGroceries(t, owner)
	flaky.broken.Store(true)
	list, stale = svc.LoadOpenRequests(ctx)
	assert.True(t, stale)
	assert.Len(t, list, 1)
}

func TestBeginPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")

	_, err := env.maps.BeginPost(ctx, "", 40.7, -74)
	assert.ErrorIs(t, err, ErrSignInRequired)

	draft, err := env.maps.BeginPost(ctx, user, 40.7, -74)
	require.NoError(t, err)
	assert.Equal(t, 40.7, draft.Latitude)
	assert.Equal(t, -74.0, draft.Longitude)
	assert.Equal(t, domain.CategoryFood, draft.Category)
	assert.Equal(t, domain.UrgencyMedium, draft.Urgency)

	_, err = env.maps.BeginPost(ctx, user, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestBeginPostNegativeReputation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")

	env.setReputation(t, user, nil)
	_, err := env.maps.BeginPost(ctx, user, 40.7, -74)
	assert.NoError(t, err, "missing reputation counts as zero")

	env.setReputation(t, user, -5)
	draft, err := env.maps.BeginPost(ctx, user, 40.7, -74)
	assert.ErrorIs(t, err, ErrPostingBlocked)
	assert.Nil(t, draft)

	state, err := env.maps.Snapshot(ctx, Viewer{UserID: user}, MapOptions{})
	require.NoError(t, err)
	assert.False(t, state.CanPost)
}

func TestDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")

	n, err := env.neighborhoods.Create(ctx, owner, &CreateNeighborhoodInput{City: "Chicago", State: "IL"})
	require.NoError(t, err)
	req := env.postGroceries(t, owner)

	d, err := env.maps.Detail(ctx, donor, false, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria", d.OwnerUsername)
	require.NotNil(t, d.NeighborhoodName)
	assert.Equal(t, n.Name, *d.NeighborhoodName)
	assert.True(t, d.CanFund)
	assert.False(t, d.ExactLocation)
	assert.NotEqual(t, req.Latitude, d.Request.Latitude)

	d, err = env.maps.Detail(ctx, owner, false, req.ID)
	require.NoError(t, err)
	assert.False(t, d.CanFund)
	assert.True(t, d.ExactLocation)
	assert.Equal(t, req.Latitude, d.Request.Latitude)

	d, err = env.maps.Detail(ctx, "", false, req.ID)
	require.NoError(t, err)
	assert.False(t, d.CanFund)

	env.fund(t, donor, req.ID)
	d, err = env.maps.Detail(ctx, donor, false, req.ID)
	require.NoError(t, err)
	assert.False(t, d.CanFund)
	assert.True(t, d.ExactLocation)

	_, err = env.maps.Detail(ctx, donor, false, "missing")
	assert.ErrorIs(t, err, ErrAidRequestNotFound)
}
