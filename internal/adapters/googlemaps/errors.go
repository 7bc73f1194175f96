package googlemaps

import (
	"context"
	"errors"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// classify maps Google Maps client errors onto the planning error taxonomy.
// The maps client reports backend statuses as error strings, so matching on
// the status token is the supported way to branch on them.
func classify(err error) *domain.PlanError {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.WrapErr(domain.KindProviderNetwork, err, "map backend circuit open")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapErr(domain.KindProviderNetwork, err, "map backend call timed out")
	}
	var pe *domain.PlanError
	if errors.As(err, &pe) {
		return pe
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return domain.WrapErr(domain.KindProviderQuota, err, "daily quota exhausted upstream")
	case strings.Contains(msg, "OVER_QUERY_LIMIT"):
		return domain.WrapErr(domain.KindProviderRateLimit, err, "throttled upstream")
	case strings.Contains(msg, "REQUEST_DENIED"):
		return domain.WrapErr(domain.KindProviderDenied, err, "request denied upstream")
	case strings.Contains(msg, "INVALID_REQUEST"), strings.Contains(msg, "MAX_ELEMENTS_EXCEEDED"):
		return domain.WrapErr(domain.KindProviderInvalidRequest, err, "malformed upstream request")
	case strings.Contains(msg, "ZERO_RESULTS"), strings.Contains(msg, "NOT_FOUND"):
		return domain.WrapErr(domain.KindNotFound, err, "no result upstream")
	default:
		return domain.WrapErr(domain.KindProviderNetwork, err, "map backend unreachable")
	}
}

// countsAgainstBreaker reports whether a failure should trip the circuit.
// Client-side outcomes (nothing found, malformed request) say nothing about
// backend health and must not open the breaker.
func countsAgainstBreaker(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindNotFound, domain.KindProviderInvalidRequest, domain.KindValidation:
		return false
	}
	return true
}
