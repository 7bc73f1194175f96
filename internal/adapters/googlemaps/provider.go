// Package googlemaps is the real MapProvider adapter. Every outbound call
// routes through the process-wide rate limiter and a circuit breaker; map
// backend statuses surface as taxonomy kinds.
package googlemaps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"googlemaps.github.io/maps"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/pkg/ratelimit"
)

// callTimeout is the per-call ceiling; anything slower surfaces as a
// network failure.
const callTimeout = 10 * time.Second

// CallRecorder receives provider call/retry notifications. The monitor
// implements it; nil disables recording.
type CallRecorder interface {
	ProviderCall(endpoint string)
}

// Provider talks to the Google Maps Platform.
type Provider struct {
	client  *maps.Client
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	rec     CallRecorder
}

// Config holds adapter construction parameters.
type Config struct {
	APIKey  string
	BaseURL string // optional override, used in tests
}

// New builds the adapter. The limiter is required; rec may be nil.
func New(cfg Config, limiter *ratelimit.Limiter, rec CallRecorder) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("googlemaps: api key is required")
	}
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("googlemaps: client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "googlemaps",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Provider{client: client, limiter: limiter, breaker: breaker, rec: rec}, nil
}

// Geocode resolves one textual address.
func (p *Provider) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	p.record("geocode")
	if err := p.limiter.Acquire(ctx); err != nil {
		return domain.Coordinates{}, classify(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out, err := p.execute(func() (any, error) {
		results, err := p.client.Geocode(callCtx, &maps.GeocodingRequest{Address: address})
		if err != nil {
			return nil, classify(err)
		}
		if len(results) == 0 {
			return nil, domain.E(domain.KindNotFound, "no geocoding result for %q", address)
		}
		loc := results[0].Geometry.Location
		return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
	})
	if err != nil {
		return domain.Coordinates{}, err
	}
	return out.(domain.Coordinates), nil
}

type legResult struct {
	durationSec    int64
	distanceMeters int64
}

// TransitTime looks up the duration of one leg at the intended departure
// time via the distance matrix endpoint. A missing route yields the NoRoute
// sentinel, not an error.
func (p *Provider) TransitTime(ctx context.Context, origin, dest domain.Coordinates, departureUnix int64, mode domain.TravelMode) (int64, int64, error) {
	p.record("transit_time")
	if err := p.limiter.Acquire(ctx); err != nil {
		return 0, 0, classify(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out, err := p.execute(func() (any, error) {
		resp, err := p.client.DistanceMatrix(callCtx, &maps.DistanceMatrixRequest{
			Origins:       []string{fmt.Sprintf("%.6f,%.6f", origin.Lat, origin.Lng)},
			Destinations:  []string{fmt.Sprintf("%.6f,%.6f", dest.Lat, dest.Lng)},
			Mode:          travelMode(mode),
			DepartureTime: strconv.FormatInt(departureUnix, 10),
		})
		if err != nil {
			return nil, classify(err)
		}
		if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
			return nil, domain.E(domain.KindProviderInvalidRequest, "empty distance matrix response")
		}
		elem := resp.Rows[0].Elements[0]
		switch elem.Status {
		case "OK":
		case "ZERO_RESULTS", "NOT_FOUND":
			return legResult{durationSec: domain.NoRoute}, nil
		default:
			return nil, domain.E(domain.KindProviderInvalidRequest, "distance matrix element status %s", elem.Status)
		}
		dur := elem.Duration
		if elem.DurationInTraffic > 0 {
			dur = elem.DurationInTraffic
		}
		return legResult{
			durationSec:    int64(dur / time.Second),
			distanceMeters: int64(elem.Distance.Meters),
		}, nil
	})
	if err != nil {
		return 0, 0, err
	}
	leg := out.(legResult)
	return leg.durationSec, leg.distanceMeters, nil
}

// NavigationLink builds the standard directions deep link.
func (p *Provider) NavigationLink(origin, dest domain.Coordinates, _ int64, mode domain.TravelMode) string {
	return domain.DirectionsURL(origin, dest, mode)
}

// execute runs fn under the circuit breaker. Client-side outcomes pass
// through without counting as breaker failures.
func (p *Provider) execute(fn func() (any, error)) (any, error) {
	type passthrough struct {
		value any
		err   error
	}
	out, err := p.breaker.Execute(func() (any, error) {
		v, err := fn()
		if err != nil && !countsAgainstBreaker(err) {
			return passthrough{err: err}, nil
		}
		return passthrough{value: v}, err
	})
	if err != nil {
		return nil, classify(err)
	}
	pt := out.(passthrough)
	if pt.err != nil {
		return nil, pt.err
	}
	return pt.value, nil
}

func (p *Provider) record(endpoint string) {
	if p.rec != nil {
		p.rec.ProviderCall(endpoint)
	}
}

func travelMode(mode domain.TravelMode) maps.Mode {
	switch mode {
	case domain.ModeDriving:
		return maps.TravelModeDriving
	case domain.ModeTransit:
		return maps.TravelModeTransit
	default:
		return maps.TravelModeWalking
	}
}
