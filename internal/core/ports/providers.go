package ports

import (
	"context"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// MapProvider abstracts geocoding and time-dependent transit duration
// lookup. Implementations must be safe for concurrent calls.
//
// TransitTime's departure is the intended departure instant in Unix seconds;
// transit schedules differ by time of day, so the same pair can yield
// different durations at different departures. A duration of domain.NoRoute
// means no route exists between the points; it is not an error.
type MapProvider interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
	TransitTime(ctx context.Context, origin, dest domain.Coordinates, departureUnix int64, mode domain.TravelMode) (durationSec, distanceMeters int64, err error)

	// NavigationLink builds a deep link for the leg. Pure, no I/O.
	NavigationLink(origin, dest domain.Coordinates, departureUnix int64, mode domain.TravelMode) string
}
