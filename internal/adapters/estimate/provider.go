// Package estimate implements the deterministic MapProvider used when no
// map backend is configured, and as the basis of fallback schedules. It
// never fails and never performs I/O.
package estimate

import (
	"context"
	"hash/fnv"

	"github.com/transitlabs/wayplan/internal/cache"
	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/pkg/geospatial"
)

// Mode speeds in meters per minute, applied to great-circle distance.
const (
	walkingMetersPerMin = 80
	drivingMetersPerMin = 500
	transitMetersPerMin = 300
)

// Pseudo-coordinates are spread over a metro-scale box so that estimated
// travel between any two addresses stays within plausible same-city bounds.
const (
	baseLat = 49.20
	baseLng = -123.20
	spanDeg = 0.25
)

// Provider is the deterministic adapter. The zero value is ready to use.
type Provider struct{}

// New returns the deterministic provider.
func New() *Provider { return &Provider{} }

// Geocode derives stable pseudo-coordinates from a hash of the normalized
// address. The same address always maps to the same point.
func (p *Provider) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(cache.NormalizeAddress(address)))
	sum := h.Sum64()

	latFrac := float64(sum&0xFFFFFFFF) / float64(0xFFFFFFFF)
	lngFrac := float64(sum>>32) / float64(0xFFFFFFFF)
	return domain.Coordinates{
		Lat: baseLat + latFrac*spanDeg,
		Lng: baseLng + lngFrac*spanDeg,
	}, nil
}

// TransitTime estimates the leg duration from great-circle distance at a
// mode-dependent speed. Departure time does not affect the estimate.
func (p *Provider) TransitTime(_ context.Context, origin, dest domain.Coordinates, _ int64, mode domain.TravelMode) (int64, int64, error) {
	meters := geospatial.Haversine(origin.Lat, origin.Lng, dest.Lat, dest.Lng)

	perMin := float64(walkingMetersPerMin)
	switch mode {
	case domain.ModeDriving:
		perMin = drivingMetersPerMin
	case domain.ModeTransit:
		perMin = transitMetersPerMin
	}

	durationSec := int64(meters / perMin * 60)
	return durationSec, int64(meters), nil
}

// NavigationLink builds the standard directions deep link.
func (p *Provider) NavigationLink(origin, dest domain.Coordinates, _ int64, mode domain.TravelMode) string {
	return domain.DirectionsURL(origin, dest, mode)
}
