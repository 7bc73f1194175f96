package usecases

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/core/ports"
)

// RetryRecorder counts retried provider calls. The monitor implements it.
type RetryRecorder interface {
	Retry()
}

// retryProvider decorates a MapProvider with the retry policy: throttling is
// retried up to three times with exponential backoff (250ms, 500ms, 1s),
// network failures once, quota and denial never.
type retryProvider struct {
	inner ports.MapProvider
	rec   RetryRecorder
}

func newRetryProvider(inner ports.MapProvider, rec RetryRecorder) *retryProvider {
	return &retryProvider{inner: inner, rec: rec}
}

func (r *retryProvider) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	var coords domain.Coordinates
	err := r.withRetry(ctx, func() error {
		var err error
		coords, err = r.inner.Geocode(ctx, address)
		return err
	})
	return coords, err
}

func (r *retryProvider) TransitTime(ctx context.Context, origin, dest domain.Coordinates, departureUnix int64, mode domain.TravelMode) (int64, int64, error) {
	var dur, dist int64
	err := r.withRetry(ctx, func() error {
		var err error
		dur, dist, err = r.inner.TransitTime(ctx, origin, dest, departureUnix, mode)
		return err
	})
	return dur, dist, err
}

func (r *retryProvider) NavigationLink(origin, dest domain.Coordinates, departureUnix int64, mode domain.TravelMode) string {
	return r.inner.NavigationLink(origin, dest, departureUnix, mode)
}

func (r *retryProvider) withRetry(ctx context.Context, call func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.Multiplier = 2
	policy.MaxInterval = time.Second
	policy.RandomizationFactor = 0

	networkRetried := false
	attempt := 0

	return backoff.Retry(func() error {
		err := call()
		if err == nil {
			return nil
		}
		switch domain.KindOf(err) {
		case domain.KindProviderRateLimit:
			attempt++
			if attempt > 3 {
				return backoff.Permanent(err)
			}
			if r.rec != nil {
				r.rec.Retry()
			}
			return err
		case domain.KindProviderNetwork:
			if networkRetried {
				return backoff.Permanent(err)
			}
			networkRetried = true
			if r.rec != nil {
				r.rec.Retry()
			}
			return err
		default:
			return backoff.Permanent(err)
		}
	}, backoff.WithContext(policy, ctx))
}
