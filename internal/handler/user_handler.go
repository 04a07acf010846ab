package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medbook/internal/service"
)

// UserHandler serves the doctor directory.
type UserHandler struct {
	identity service.IdentityService
}

// NewUserHandler creates a user handler.
func NewUserHandler(identity service.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

// ListDoctors godoc
// @Summary List doctors
// @Tags users
// @Produce json
// @Param specialization query string false "Exact specialization filter"
// @Success 200 {array} model.User
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/doctor [get]
func (h *UserHandler) ListDoctors(c echo.Context) error {
	doctors, err := h.identity.ListDoctors(c.Request().Context(), c.QueryParam("specialization"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}
