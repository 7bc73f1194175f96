package cache

import (
	"context"
	"strings"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// Geocoding cache defaults.
const (
	DefaultGeocodeTTL   = 24 * time.Hour
	DefaultMaxEntries   = 10000
	DefaultCleanupEvery = 5 * time.Minute
)

// GeocodingCache maps normalized addresses to coordinates.
type GeocodingCache struct {
	store *ttlStore[domain.Coordinates]
}

// NewGeocodingCache creates the cache. Zero values select the defaults.
func NewGeocodingCache(ttl time.Duration, capacity int, cleanupEvery time.Duration) *GeocodingCache {
	if ttl <= 0 {
		ttl = DefaultGeocodeTTL
	}
	if capacity <= 0 {
		capacity = DefaultMaxEntries
	}
	if cleanupEvery <= 0 {
		cleanupEvery = DefaultCleanupEvery
	}
	return &GeocodingCache{store: newTTLStore[domain.Coordinates](ttl, capacity, cleanupEvery)}
}

// NormalizeAddress lowercases, trims, and collapses internal whitespace so
// that trivially different spellings share a cache entry.
func NormalizeAddress(addr string) string {
	return strings.Join(strings.Fields(strings.ToLower(addr)), " ")
}

// Get returns cached coordinates for the address, if present and fresh.
func (c *GeocodingCache) Get(addr string) (domain.Coordinates, bool) {
	return c.store.get(NormalizeAddress(addr))
}

// Set stores coordinates under the default TTL.
func (c *GeocodingCache) Set(addr string, coords domain.Coordinates) {
	c.store.set(NormalizeAddress(addr), coords, 0)
}

// SetTTL stores coordinates with a per-entry TTL.
func (c *GeocodingCache) SetTTL(addr string, coords domain.Coordinates, ttl time.Duration) {
	c.store.set(NormalizeAddress(addr), coords, ttl)
}

// Has reports whether a fresh entry exists for the address.
func (c *GeocodingCache) Has(addr string) bool {
	return c.store.has(NormalizeAddress(addr))
}

// Delete drops the entry for the address.
func (c *GeocodingCache) Delete(addr string) {
	c.store.delete(NormalizeAddress(addr))
}

// Cleanup sweeps expired entries and returns the count removed.
func (c *GeocodingCache) Cleanup() int { return c.store.Cleanup() }

// Stats returns a snapshot of cache state.
func (c *GeocodingCache) Stats() Stats { return c.store.stats() }

// Reset empties the cache. Intended for tests and the admin surface.
func (c *GeocodingCache) Reset() { c.store.Reset() }

// Stop terminates the background janitor.
func (c *GeocodingCache) Stop() { c.store.Stop() }

// Preload resolves and caches the given addresses, skipping ones already
// present. Per-address failures are swallowed; a cancelled context stops the
// walk.
func (c *GeocodingCache) Preload(ctx context.Context, addrs []string, geocode func(context.Context, string) (domain.Coordinates, error)) {
	for _, addr := range addrs {
		if ctx.Err() != nil {
			return
		}
		if c.Has(addr) {
			continue
		}
		coords, err := geocode(ctx, addr)
		if err != nil {
			continue
		}
		c.Set(addr, coords)
	}
}
