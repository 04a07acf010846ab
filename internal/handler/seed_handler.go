package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medbook/internal/seed"
	"medbook/internal/service"
)

// SeedHandler loads demo doctors. It is only routed in development.
type SeedHandler struct {
	identity service.IdentityService
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(identity service.IdentityService) *SeedHandler {
	return &SeedHandler{identity: identity}
}

// SeedDoctors godoc
// @Summary Register a batch of doctors
// @Tags seed
// @Accept json
// @Produce json
// @Param request body []seed.Doctor true "Doctors to register"
// @Success 200 {object} seed.Result
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /seed/doctors [post]
func (h *SeedHandler) SeedDoctors(c echo.Context) error {
	var doctors []seed.Doctor
	if err := c.Bind(&doctors); err != nil {
		return badRequest("invalid request body")
	}

	res, err := seed.Apply(c.Request().Context(), h.identity, doctors)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, res)
}
