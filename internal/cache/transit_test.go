package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlabs/wayplan/internal/cache"
	"github.com/transitlabs/wayplan/internal/core/domain"
)

var (
	downtown = domain.Coordinates{Lat: 49.28273, Lng: -123.12074}
	airport  = domain.Coordinates{Lat: 49.19390, Lng: -123.18400}
)

func TestLegKey_DepartureBuckets(t *testing.T) {
	// Departures inside the same 5 minute window share a key.
	k1 := cache.LegKey(downtown, airport, domain.ModeTransit, 1000)
	k2 := cache.LegKey(downtown, airport, domain.ModeTransit, 1299)
	k3 := cache.LegKey(downtown, airport, domain.ModeTransit, 1500)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	// Direction and mode are part of the key.
	assert.NotEqual(t, k1, cache.LegKey(airport, downtown, domain.ModeTransit, 1000))
	assert.NotEqual(t, k1, cache.LegKey(downtown, airport, domain.ModeDriving, 1000))
}

func TestTransitCache_SetGet(t *testing.T) {
	c := cache.NewTransitCache(time.Hour, 10, 0)
	defer c.Stop()

	c.Set(downtown, airport, domain.ModeTransit, 1000, 1800, 12000)

	dur, dist, ok := c.Get(downtown, airport, domain.ModeTransit, 1200)
	require.True(t, ok, "same departure bucket must hit")
	assert.EqualValues(t, 1800, dur)
	assert.EqualValues(t, 12000, dist)

	_, _, ok = c.Get(downtown, airport, domain.ModeTransit, 2000)
	assert.False(t, ok, "a later bucket is a distinct entry")

	_, _, ok = c.Get(downtown, airport, domain.ModeWalking, 1000)
	assert.False(t, ok, "mode is part of the key")
}

func TestTransitCache_CachesNoRoute(t *testing.T) {
	c := cache.NewTransitCache(time.Hour, 10, 0)
	defer c.Stop()

	c.Set(downtown, airport, domain.ModeWalking, 0, domain.NoRoute, 0)

	dur, _, ok := c.Get(downtown, airport, domain.ModeWalking, 0)
	require.True(t, ok, "negative results are cached too")
	assert.Equal(t, domain.NoRoute, dur)
}

func TestTransitCache_CapacityEviction(t *testing.T) {
	c := cache.NewTransitCache(time.Hour, 2, 0)
	defer c.Stop()

	c.Set(downtown, airport, domain.ModeWalking, 0, 100, 1)
	time.Sleep(time.Millisecond)
	c.Set(downtown, airport, domain.ModeDriving, 0, 200, 2)
	time.Sleep(time.Millisecond)
	c.Set(downtown, airport, domain.ModeTransit, 0, 300, 3)

	assert.Equal(t, 2, c.Stats().Size)
	_, _, ok := c.Get(downtown, airport, domain.ModeWalking, 0)
	assert.False(t, ok, "the oldest leg is evicted first")
}
