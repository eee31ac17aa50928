package geo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	newYork    = Coordinate{Lat: 40.7128, Lng: -74.0060}
	losAngeles = Coordinate{Lat: 34.0522, Lng: -118.2437}
)

func TestHaversineIdentity(t *testing.T) {
	assert.Equal(t, 0.0, HaversineMiles(newYork, newYork))
	assert.Equal(t, 0.0, HaversineMiles(losAngeles, losAngeles))
}

func TestHaversineSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := Coordinate{Lat: r.Float64()*180 - 90, Lng: r.Float64()*360 - 180}
		b := Coordinate{Lat: r.Float64()*180 - 90, Lng: r.Float64()*360 - 180}
		assert.InDelta(t, HaversineMiles(a, b), HaversineMiles(b, a), 1e-9)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// NYC to LA is roughly 2445 miles along the great circle.
	assert.InDelta(t, 2445, HaversineMiles(newYork, losAngeles), 10)
}

func TestWithinRadius(t *testing.T) {
	nearby := Coordinate{Lat: newYork.Lat + 0.01, Lng: newYork.Lng}
	assert.True(t, WithinRadius(newYork, nearby, 5))
	assert.True(t, WithinRadius(newYork, newYork, 0))
	assert.False(t, WithinRadius(newYork, losAngeles, 5))
}

func TestOffsetterBounds(t *testing.T) {
	o := NewOffsetter()
	for i := 0; i < 1000; i++ {
		in := newYork
		out := o.Apply(in)
		assert.Equal(t, newYork, in)
		assert.LessOrEqual(t, abs(out.Lat-newYork.Lat), MaxPrivacyOffset)
		assert.LessOrEqual(t, abs(out.Lng-newYork.Lng), MaxPrivacyOffset)
	}
}

func TestOffsetterExtremes(t *testing.T) {
	low := NewOffsetterWithSource(func() float64 { return 0 })
	out := low.Apply(newYork)
	assert.InDelta(t, newYork.Lat-MaxPrivacyOffset, out.Lat, 1e-12)
	assert.InDelta(t, newYork.Lng-MaxPrivacyOffset, out.Lng, 1e-12)

	mid := NewOffsetterWithSource(func() float64 { return 0.5 })
	assert.Equal(t, newYork, mid.Apply(newYork))
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, newYork.Valid())
	assert.False(t, Coordinate{Lat: 91}.Valid())
	assert.False(t, Coordinate{Lng: -181}.Valid())
}

func TestCityCenters(t *testing.T) {
	cc := DefaultCityCenters()

	c, ok := cc.Lookup("  Los   Angeles ")
	require.True(t, ok)
	assert.Equal(t, losAngeles, c)

	c, ok = cc.Lookup("Austin")
	assert.False(t, ok)
	assert.Equal(t, Coordinate{Lat: 39.8283, Lng: -98.5795}, c)
	assert.Equal(t, c, cc.Fallback())
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
