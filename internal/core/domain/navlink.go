package domain

import "fmt"

// DirectionsURL builds a Google Maps directions deep link for a leg. Both
// provider adapters share it; the link format does not depend on which
// backend produced the schedule.
func DirectionsURL(origin, dest Coordinates, mode TravelMode) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%.6f,%.6f&destination=%.6f,%.6f&travelmode=%s",
		origin.Lat, origin.Lng, dest.Lat, dest.Lng, mode)
}
