package domain

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies planning failures. The taxonomy drives retry policy,
// fallback selection, and the HTTP status mapping.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindNotFound               Kind = "not_found"
	KindProviderQuota          Kind = "provider_quota"
	KindProviderRateLimit      Kind = "provider_rate_limit"
	KindProviderDenied         Kind = "provider_denied"
	KindProviderInvalidRequest Kind = "provider_invalid_request"
	KindProviderNetwork        Kind = "provider_network"
	KindDeadline               Kind = "deadline"
	KindInternal               Kind = "internal"
)

// PlanError carries a taxonomy kind alongside a human message and, when
// wrapping, the upstream cause.
type PlanError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *PlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PlanError) Unwrap() error { return e.Err }

// E builds a PlanError without a cause.
func E(kind Kind, format string, args ...any) *PlanError {
	return &PlanError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapErr attaches a kind and message to an upstream error.
func WrapErr(kind Kind, err error, format string, args ...any) *PlanError {
	return &PlanError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the taxonomy kind from an error chain. Context expiry maps
// onto KindDeadline; anything unclassified is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindDeadline
	}
	return KindInternal
}

// TriggersFallback reports whether a provider failure should hand the
// request to the fallback planner instead of surfacing.
func TriggersFallback(err error) bool {
	switch KindOf(err) {
	case KindProviderQuota, KindProviderRateLimit, KindProviderNetwork:
		return true
	}
	return false
}
