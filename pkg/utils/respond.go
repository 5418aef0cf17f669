package utils

import (
	"errors"
	"net/http"

	"courier-dispatch/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes the payload with the given status code.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes a generic error body.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// RespondWithCode writes an error body with a machine-readable code.
func RespondWithCode(c echo.Context, status int, code, message string) error {
	return c.JSON(status, models.ErrorResponse{Code: code, Message: message})
}

// RespondWithFieldErrors writes a validation failure with a field-error map.
func RespondWithFieldErrors(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    "INVALID_INPUT",
		Message: "request validation failed",
		Errors:  fields,
	})
}

// HandleServiceError maps service-layer sentinel errors to HTTP responses.
// Unexpected errors are redacted to a generic 500.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithCode(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, models.ErrInvalidState):
		return RespondWithCode(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
	case errors.Is(err, models.ErrQuoteExpired):
		return RespondWithCode(c, http.StatusBadRequest, "QUOTE_EXPIRED", err.Error())
	case errors.Is(err, models.ErrInvalidPricing):
		return RespondWithCode(c, http.StatusBadRequest, "INVALID_PRICING", err.Error())
	case errors.Is(err, models.ErrConflict):
		return RespondWithCode(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		return RespondWithCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, models.ErrForbidden):
		return RespondWithCode(c, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
	default:
		c.Logger().Errorf("internal error: %v", err)
		return RespondWithCode(c, http.StatusInternalServerError, "INTERNAL", "an unexpected error occurred")
	}
}
