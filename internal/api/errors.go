package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docrag/internal/domain"
)

// Error is the JSON error payload returned by the API.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e Error) Error() string { return e.Message }

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

func ErrBadRequest() Error {
	return Error{Code: fiber.StatusBadRequest, Message: "invalid JSON request"}
}

// ValidationError carries per-field validation failures.
type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string { return "validation failed" }

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

// ErrorHandler maps errors to HTTP responses. Domain sentinels get stable
// status codes so clients can react without parsing messages.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Code).JSON(apiErr)
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return c.Status(valErr.Status).JSON(valErr)
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedFormat):
		status = fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrDimensionMismatch):
		status = fiber.StatusUnprocessableEntity
	default:
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
	}
	return c.Status(status).JSON(NewError(status, err.Error()))
}
