package cache

import (
	"fmt"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// DefaultTransitTTL bounds how long a transit duration stays valid.
const DefaultTransitTTL = time.Hour

// departureBucketSec bins departures into 5-minute windows: coarse enough to
// keep cache cardinality bounded, fine enough to keep time-of-day fidelity.
const departureBucketSec = 300

// legValue is the cached result of one transit lookup.
type legValue struct {
	DurationSec    int64 `json:"durationSec"`
	DistanceMeters int64 `json:"distanceMeters"`
}

// TransitCache maps (origin, destination, mode, departure bucket) to
// durations.
type TransitCache struct {
	store *ttlStore[legValue]
}

// NewTransitCache creates the cache. Zero values select the defaults.
func NewTransitCache(ttl time.Duration, capacity int, cleanupEvery time.Duration) *TransitCache {
	if ttl <= 0 {
		ttl = DefaultTransitTTL
	}
	if capacity <= 0 {
		capacity = DefaultMaxEntries
	}
	if cleanupEvery <= 0 {
		cleanupEvery = DefaultCleanupEvery
	}
	return &TransitCache{store: newTTLStore[legValue](ttl, capacity, cleanupEvery)}
}

// LegKey derives the cache key for a transit lookup. Coordinates are rounded
// to 5 decimal places (about one meter), departures to 5-minute buckets.
func LegKey(origin, dest domain.Coordinates, mode domain.TravelMode, departureUnix int64) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f|%s|%d",
		origin.Lat, origin.Lng, dest.Lat, dest.Lng, mode, departureUnix/departureBucketSec)
}

// Get returns a cached duration and distance for the leg, if fresh.
func (c *TransitCache) Get(origin, dest domain.Coordinates, mode domain.TravelMode, departureUnix int64) (durationSec, distanceMeters int64, ok bool) {
	v, ok := c.store.get(LegKey(origin, dest, mode, departureUnix))
	if !ok {
		return 0, 0, false
	}
	return v.DurationSec, v.DistanceMeters, true
}

// Set stores a leg result. NoRoute results are cached too: a missing route
// at a given time bucket is as cacheable as a found one.
func (c *TransitCache) Set(origin, dest domain.Coordinates, mode domain.TravelMode, departureUnix, durationSec, distanceMeters int64) {
	c.store.set(LegKey(origin, dest, mode, departureUnix), legValue{DurationSec: durationSec, DistanceMeters: distanceMeters}, 0)
}

// Cleanup sweeps expired entries and returns the count removed.
func (c *TransitCache) Cleanup() int { return c.store.Cleanup() }

// Stats returns a snapshot of cache state.
func (c *TransitCache) Stats() Stats { return c.store.stats() }

// Reset empties the cache.
func (c *TransitCache) Reset() { c.store.Reset() }

// Stop terminates the background janitor.
func (c *TransitCache) Stop() { c.store.Stop() }
