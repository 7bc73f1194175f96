package estimate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlabs/wayplan/internal/adapters/estimate"
	"github.com/transitlabs/wayplan/internal/core/domain"
)

func TestProvider_GeocodeDeterministic(t *testing.T) {
	p := estimate.New()
	ctx := context.Background()

	a, err := p.Geocode(ctx, "Granville Island, Vancouver")
	require.NoError(t, err)
	b, err := p.Geocode(ctx, "  granville   ISLAND, Vancouver ")
	require.NoError(t, err)
	assert.Equal(t, a, b, "normalized spellings share coordinates")

	c, err := p.Geocode(ctx, "Science World")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestProvider_GeocodeStaysInBox(t *testing.T) {
	p := estimate.New()
	for _, addr := range []string{"Stanley Park", "Gastown", "Kitsilano Beach", "Grouse Mountain"} {
		coords, err := p.Geocode(context.Background(), addr)
		require.NoError(t, err)
		assert.True(t, coords.Valid())
		assert.GreaterOrEqual(t, coords.Lat, 49.20)
		assert.LessOrEqual(t, coords.Lat, 49.45)
		assert.GreaterOrEqual(t, coords.Lng, -123.20)
		assert.LessOrEqual(t, coords.Lng, -122.95)
	}
}

func TestProvider_TransitTimeByMode(t *testing.T) {
	p := estimate.New()
	ctx := context.Background()

	a, _ := p.Geocode(ctx, "Stanley Park")
	b, _ := p.Geocode(ctx, "Science World")

	walk, dist, err := p.TransitTime(ctx, a, b, 0, domain.ModeWalking)
	require.NoError(t, err)
	drive, _, err := p.TransitTime(ctx, a, b, 0, domain.ModeDriving)
	require.NoError(t, err)
	transit, _, err := p.TransitTime(ctx, a, b, 0, domain.ModeTransit)
	require.NoError(t, err)

	assert.Positive(t, dist)
	assert.Greater(t, walk, transit, "walking is the slowest mode")
	assert.Greater(t, transit, drive, "driving is the fastest mode")
}

func TestProvider_TransitTimeZeroDistance(t *testing.T) {
	p := estimate.New()
	a := domain.Coordinates{Lat: 49.25, Lng: -123.1}

	dur, dist, err := p.TransitTime(context.Background(), a, a, 0, domain.ModeWalking)
	require.NoError(t, err)
	assert.Zero(t, dur)
	assert.Zero(t, dist)
}

func TestProvider_NavigationLink(t *testing.T) {
	p := estimate.New()
	a := domain.Coordinates{Lat: 49.25, Lng: -123.10}
	b := domain.Coordinates{Lat: 49.30, Lng: -123.00}

	link := p.NavigationLink(a, b, 0, domain.ModeTransit)
	assert.Contains(t, link, "google.com/maps")
	assert.Contains(t, link, "travelmode=transit")
}
