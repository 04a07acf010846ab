package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "medbook/internal/errors"
)

// domainError turns a service error into an echo error carrying the
// {message, code} body. Internal causes stay attached for logging only.
func domainError(err error) *echo.HTTPError {
	mapped := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Message: message,
		Code:    "INVALID_REQUEST",
	})
}

func unauthorized() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Message: "unauthorized",
		Code:    "UNAUTHORIZED",
	})
}
