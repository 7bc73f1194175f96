package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/ports"
)

// Recorder receives cache hit/miss notifications. The monitor implements it;
// a nil recorder disables recording.
type Recorder interface {
	CacheHit(op string)
	CacheMiss(op string)
}

const (
	sharedGeoPrefix = "wayplan:geo:"
	sharedLegPrefix = "wayplan:leg:"
)

// Provider decorates a MapProvider with the in-memory geocoding and transit
// caches and, when configured, a shared second-level cache. Lookups go
// memory, then shared layer, then the wrapped provider.
type Provider struct {
	inner   ports.MapProvider
	geo     *GeocodingCache
	transit *TransitCache
	shared  ports.CacheService // optional
	rec     Recorder           // optional
}

// NewProvider wraps inner with the given caches. shared and rec may be nil.
func NewProvider(inner ports.MapProvider, geo *GeocodingCache, transit *TransitCache, shared ports.CacheService, rec Recorder) *Provider {
	return &Provider{inner: inner, geo: geo, transit: transit, shared: shared, rec: rec}
}

// Geocode resolves an address through the cache hierarchy.
func (p *Provider) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if coords, ok := p.geo.Get(address); ok {
		p.hit("geocode")
		return coords, nil
	}
	p.miss("geocode")

	key := sharedGeoPrefix + NormalizeAddress(address)
	if p.shared != nil {
		if data, err := p.shared.Get(ctx, key); err == nil {
			var coords domain.Coordinates
			if err := json.Unmarshal(data, &coords); err == nil && coords.Valid() {
				p.geo.Set(address, coords)
				return coords, nil
			}
		}
	}

	coords, err := p.inner.Geocode(ctx, address)
	if err != nil {
		return domain.Coordinates{}, err
	}
	p.geo.Set(address, coords)
	if p.shared != nil {
		if data, err := json.Marshal(coords); err == nil {
			_ = p.shared.Set(ctx, key, data, int(DefaultGeocodeTTL/time.Second))
		}
	}
	return coords, nil
}

// TransitTime resolves a leg through the cache hierarchy. NoRoute results
// are cached like any other.
func (p *Provider) TransitTime(ctx context.Context, origin, dest domain.Coordinates, departureUnix int64, mode domain.TravelMode) (int64, int64, error) {
	if dur, dist, ok := p.transit.Get(origin, dest, mode, departureUnix); ok {
		p.hit("transit")
		return dur, dist, nil
	}
	p.miss("transit")

	key := sharedLegPrefix + LegKey(origin, dest, mode, departureUnix)
	if p.shared != nil {
		if data, err := p.shared.Get(ctx, key); err == nil {
			var v legValue
			if err := json.Unmarshal(data, &v); err == nil && v.DurationSec != 0 {
				p.transit.Set(origin, dest, mode, departureUnix, v.DurationSec, v.DistanceMeters)
				return v.DurationSec, v.DistanceMeters, nil
			}
		}
	}

	dur, dist, err := p.inner.TransitTime(ctx, origin, dest, departureUnix, mode)
	if err != nil {
		return 0, 0, err
	}
	p.transit.Set(origin, dest, mode, departureUnix, dur, dist)
	if p.shared != nil {
		if data, err := json.Marshal(legValue{DurationSec: dur, DistanceMeters: dist}); err == nil {
			_ = p.shared.Set(ctx, key, data, int(DefaultTransitTTL/time.Second))
		}
	}
	return dur, dist, nil
}

// NavigationLink delegates to the wrapped provider.
func (p *Provider) NavigationLink(origin, dest domain.Coordinates, departureUnix int64, mode domain.TravelMode) string {
	return p.inner.NavigationLink(origin, dest, departureUnix, mode)
}

func (p *Provider) hit(op string) {
	if p.rec != nil {
		p.rec.CacheHit(op)
	}
}

func (p *Provider) miss(op string) {
	if p.rec != nil {
		p.rec.CacheMiss(op)
	}
}
