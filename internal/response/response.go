package response

import (
	"github.com/gofiber/fiber/v2"

	"vidhub/internal/apierr"
)

// Envelope is the success body shape shared by every endpoint.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// ErrorEnvelope is the failure body shape shared by every endpoint.
type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// OK writes a success envelope with the given status, payload and message.
func OK(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// Fail resolves err to an APIError and writes the error envelope.
func Fail(c *fiber.Ctx, err error) error {
	apiErr := apierr.From(err)
	return c.Status(apiErr.Status).JSON(ErrorEnvelope{
		StatusCode: apiErr.Status,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     []string{},
	})
}

// FailValidation writes a 400 error envelope carrying per-field messages.
func FailValidation(c *fiber.Ctx, message string, fieldErrors []string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorEnvelope{
		StatusCode: fiber.StatusBadRequest,
		Message:    message,
		Success:    false,
		Errors:     fieldErrors,
	})
}
