package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wanderlust/internal/core/domain"
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

// errValidation returns a 400 error for a malformed request body.
func errValidation(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "validation_error", msg)
}

// errInvalidInput returns a 400 error for a blank chat message.
func errInvalidInput(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "invalid_input", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, 403, "forbidden", msg)
}

// errSessionBusy returns a 409 error while a reply is being generated.
func errSessionBusy(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "session_busy", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// respondError maps a usecase error to its HTTP form. Internal details are
// logged, not returned.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return errUnauthorized(c, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return errForbidden(c, "trip belongs to another user")
	case errors.Is(err, domain.ErrInvalidInput):
		return errInvalidInput(c, "message must not be empty")
	case errors.Is(err, domain.ErrValidation):
		return errValidation(c, err.Error())
	case errors.Is(err, domain.ErrSessionBusy):
		return errSessionBusy(c, "a reply is still being generated")
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, "session not found")
	case errors.Is(err, domain.ErrTripNotFound):
		return errNotFound(c, "trip not found")
	case errors.Is(err, domain.ErrTooManySessions):
		return errUnavailable(c, "too many active sessions")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
}

