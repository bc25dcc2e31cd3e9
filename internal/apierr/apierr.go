package apierr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// APIError is an expected failure with a fixed HTTP status. Anything else
// that escapes a handler is treated as a 500.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// New creates an APIError with the given status and message.
func New(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func BadRequest(message string) *APIError {
	return New(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *APIError {
	return New(fiber.StatusUnauthorized, message)
}

func NotFound(message string) *APIError {
	return New(fiber.StatusNotFound, message)
}

func Conflict(message string) *APIError {
	return New(fiber.StatusConflict, message)
}

func Internal(message string) *APIError {
	return New(fiber.StatusInternalServerError, message)
}

// From resolves any error to an APIError, defaulting to a generic 500 so
// internal detail never reaches the client.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("Internal server error")
}
