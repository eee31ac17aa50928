package services

import (
	"context"
	"testing"

	"aidmap-api/internal/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNeighborhoodUnknownCityUsesFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")

	n, err := env.neighborhoods.Create(ctx, user, &CreateNeighborhoodInput{City: "Austin", State: "tx"})
	require.NoError(t, err)

	assert.Equal(t, "Austin Community", n.Name)
	assert.Equal(t, "TX", n.State)
	assert.Equal(t, 39.8283, n.Latitude)
	assert.Equal(t, -98.5795, n.Longitude)
	assert.Equal(t, DefaultRadiusMiles, n.RadiusMiles)
	assert.Nil(t, n.ZipCode)

	profile, err := env.profiles.Get(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, profile.NeighborhoodID)
	assert.Equal(t, n.ID, *profile.NeighborhoodID)
}

func TestCreateNeighborhoodKnownCity(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "maria")

	n, err := env.neighborhoods.Create(context.Background(), user, &CreateNeighborhoodInput{
		Name:    "Pilsen",
		City:    "  CHICAGO ",
		State:   "il",
		ZipCode: "60608",
	})
	require.NoError(t, err)

	chicago, ok := geo.DefaultCityCenters().Lookup("chicago")
	require.True(t, ok)
	assert.Equal(t, "Pilsen", n.Name)
	assert.Equal(t, chicago.Lat, n.Latitude)
	assert.Equal(t, chicago.Lng, n.Longitude)
	require.NotNil(t, n.ZipCode)
	assert.Equal(t, "60608", *n.ZipCode)
}

func TestCreateNeighborhoodDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")

	_, err := env.neighborhoods.Create(ctx, user, &CreateNeighborhoodInput{City: "Austin", State: "TX"})
	require.NoError(t, err)

	_, err = env.neighborhoods.Create(ctx, user, &CreateNeighborhoodInput{City: "austin", State: "tx", Name: "Austin Community"})
	assert.ErrorIs(t, err, ErrNeighborhoodExists)

	_, err = env.neighborhoods.Create(ctx, user, &CreateNeighborhoodInput{State: "TX"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestJoinAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	founder := env.register(t, "maria")
	joiner := env.register(t, "sam")

	b, err := env.neighborhoods.Create(ctx, founder, &CreateNeighborhoodInput{Name: "Bronx", City: "New York", State: "NY"})
	require.NoError(t, err)
	_, err = env.neighborhoods.Create(ctx, founder, &CreateNeighborhoodInput{Name: "Astoria", City: "New York", State: "NY"})
	require.NoError(t, err)

	require.NoError(t, env.neighborhoods.Join(ctx, joiner, b.ID))
	profile, err := env.profiles.Get(ctx, joiner)
	require.NoError(t, err)
	assert.Equal(t, b.ID, *profile.NeighborhoodID)

	assert.ErrorIs(t, env.neighborhoods.Join(ctx, joiner, "missing"), ErrNeighborhoodNotFound)

	list, err := env.neighborhoods.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Astoria", list[0].Name)
	assert.Equal(t, "Bronx", list[1].Name)
}

func TestProfileUpdateAndWelcome(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")
	env.register(t, "sam")

	taken := "sam"
	_, err := env.profiles.Update(ctx, user, &UpdateProfileInput{Username: &taken})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	bio := "Retired nurse"
	skills := "first aid, , cooking ,driving"
	p, err := env.profiles.Update(ctx, user, &UpdateProfileInput{Bio: &bio, Skills: &skills})
	require.NoError(t, err)
	assert.Equal(t, []string{"first aid", "cooking", "driving"}, p.Skills)
	require.NotNil(t, p.Bio)
	assert.Equal(t, bio, *p.Bio)

	status, err := env.profiles.WelcomeStatus(ctx, user)
	require.NoError(t, err)
	assert.True(t, status.ShowWelcome)

	require.NoError(t, env.profiles.MarkWelcomeSeen(ctx, user))
	status, err = env.profiles.WelcomeStatus(ctx, user)
	require.NoError(t, err)
	assert.False(t, status.ShowWelcome)
	assert.NotNil(t, status.SeenAt)
}
