// Package geo holds the map arithmetic: great-circle distance, neighborhood
// radius checks and the display-only privacy offset applied to markers.
package geo

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// EarthRadiusMiles is the mean Earth radius used by HaversineMiles
	EarthRadiusMiles = 3959.0

	// MaxPrivacyOffset is the largest displacement, in degrees, applied to
	// either axis of a displayed coordinate (roughly 250-500 m).
	MaxPrivacyOffset = 0.0025
)

// Coordinate is a WGS84 latitude/longitude pair in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies inside the lat/lng ranges
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineMiles returns the great-circle distance between a and b in miles
func HaversineMiles(a, b Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether p is at most radiusMiles from center
func WithinRadius(center, p Coordinate, radiusMiles float64) bool {
	return HaversineMiles(center, p) <= radiusMiles
}

// Offsetter jitters coordinates for display. It is safe for concurrent use.
type Offsetter struct {
	mu     sync.Mutex
	random func() float64
}

// NewOffsetter returns an Offsetter seeded from the clock
func NewOffsetter() *Offsetter {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Offsetter{random: r.Float64}
}

// NewOffsetterWithSource returns an Offsetter drawing from random, which must
// return values in [0, 1).
func NewOffsetterWithSource(random func() float64) *Offsetter {
	return &Offsetter{random: random}
}

// Apply returns c displaced by up to MaxPrivacyOffset on each axis.
// The argument is never modified.
func (o *Offsetter) Apply(c Coordinate) Coordinate {
	o.mu.Lock()
	latJitter := o.random()
	lngJitter := o.random()
	o.mu.Unlock()

	return Coordinate{
		Lat: c.Lat + (latJitter-0.5)*2*MaxPrivacyOffset,
		Lng: c.Lng + (lngJitter-0.5)*2*MaxPrivacyOffset,
	}
}
