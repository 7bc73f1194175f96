package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// planError maps an error from the planning pipeline onto an HTTP status by
// its taxonomy kind. Quota and throttling kinds rarely surface here since
// the service answers them with the fallback schedule.
func planError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindValidation:
		return newError(c, 400, string(kind), err.Error())
	case domain.KindNotFound:
		return newError(c, 404, string(kind), err.Error())
	case domain.KindDeadline:
		return newError(c, 504, string(kind), err.Error())
	case domain.KindProviderDenied, domain.KindProviderInvalidRequest:
		return newError(c, 502, string(kind), err.Error())
	case domain.KindProviderQuota, domain.KindProviderRateLimit, domain.KindProviderNetwork:
		return newError(c, 503, string(kind), err.Error())
	default:
		return newError(c, 500, string(kind), err.Error())
	}
}
