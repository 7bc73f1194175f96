package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlabs/wayplan/internal/cache"
	"github.com/transitlabs/wayplan/internal/core/domain"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "granville island, vancouver", cache.NormalizeAddress("  Granville   Island,  Vancouver "))
	assert.Equal(t, cache.NormalizeAddress("STANLEY PARK"), cache.NormalizeAddress("stanley park"))
}

func TestGeocodingCache_SetGet(t *testing.T) {
	c := cache.NewGeocodingCache(time.Hour, 10, 0)
	defer c.Stop()

	coords := domain.Coordinates{Lat: 49.3, Lng: -123.1}
	c.Set("Stanley Park", coords)

	got, ok := c.Get("stanley   PARK")
	require.True(t, ok, "lookups are case and whitespace insensitive")
	assert.Equal(t, coords, got)

	_, ok = c.Get("Queen Elizabeth Park")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, 1, st.Size)
	assert.EqualValues(t, 1, st.Hits)
	assert.EqualValues(t, 1, st.Misses)
	assert.InDelta(t, 0.5, st.HitRate, 0.001)
}

func TestGeocodingCache_Expiry(t *testing.T) {
	c := cache.NewGeocodingCache(time.Hour, 10, 0)
	defer c.Stop()

	c.SetTTL("Gastown", domain.Coordinates{Lat: 49.28, Lng: -123.10}, -time.Second)

	_, ok := c.Get("Gastown")
	assert.False(t, ok, "expired entries must never be returned")
	assert.False(t, c.Has("Gastown"))
}

func TestGeocodingCache_EvictsOldestInsertion(t *testing.T) {
	c := cache.NewGeocodingCache(time.Hour, 2, 0)
	defer c.Stop()

	c.Set("first", domain.Coordinates{Lat: 1, Lng: 1})
	time.Sleep(time.Millisecond)
	c.Set("second", domain.Coordinates{Lat: 2, Lng: 2})
	time.Sleep(time.Millisecond)
	c.Set("third", domain.Coordinates{Lat: 3, Lng: 3})

	assert.Equal(t, 2, c.Stats().Size)
	assert.False(t, c.Has("first"), "the oldest insertion is evicted first")
	assert.True(t, c.Has("second"))
	assert.True(t, c.Has("third"))
}

func TestGeocodingCache_Cleanup(t *testing.T) {
	c := cache.NewGeocodingCache(time.Hour, 10, 0)
	defer c.Stop()

	c.SetTTL("stale", domain.Coordinates{Lat: 1, Lng: 1}, -time.Second)
	c.Set("fresh", domain.Coordinates{Lat: 2, Lng: 2})

	assert.Equal(t, 1, c.Cleanup())
	assert.Equal(t, 1, c.Stats().Size)
}

func TestGeocodingCache_Preload(t *testing.T) {
	c := cache.NewGeocodingCache(time.Hour, 10, 0)
	defer c.Stop()

	c.Set("Known Place", domain.Coordinates{Lat: 1, Lng: 1})

	var calls []string
	geocode := func(_ context.Context, addr string) (domain.Coordinates, error) {
		calls = append(calls, addr)
		if addr == "Broken Place" {
			return domain.Coordinates{}, domain.E(domain.KindProviderNetwork, "backend down")
		}
		return domain.Coordinates{Lat: 2, Lng: 2}, nil
	}

	c.Preload(context.Background(), []string{"Known Place", "New Place", "Broken Place"}, geocode)

	assert.Equal(t, []string{"New Place", "Broken Place"}, calls, "present keys are skipped")
	assert.True(t, c.Has("New Place"))
	assert.False(t, c.Has("Broken Place"), "failed lookups are not cached")
}

func TestGeocodingCache_Reset(t *testing.T) {
	c := cache.NewGeocodingCache(time.Hour, 10, 0)
	defer c.Stop()

	c.Set("a", domain.Coordinates{Lat: 1, Lng: 1})
	c.Get("a")
	c.Reset()

	st := c.Stats()
	assert.Equal(t, 0, st.Size)
	assert.EqualValues(t, 0, st.Hits)
}
