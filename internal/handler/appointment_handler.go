package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"medbook/internal/middleware"
	"medbook/internal/service"
)

// AppointmentHandler handles booking endpoints.
type AppointmentHandler struct {
	bookings service.BookingService
}

// NewAppointmentHandler creates a new appointment handler.
func NewAppointmentHandler(bookings service.BookingService) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings}
}

// CreateAppointmentRequest represents a booking request.
type CreateAppointmentRequest struct {
	Doctor string    `json:"doctor" validate:"required,uuid"`
	Date   time.Time `json:"date" validate:"required"`
}

// Create godoc
// @Summary Book an appointment with a doctor
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAppointmentRequest true "Doctor id and RFC 3339 date"
// @Success 201 {object} model.Appointment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /appointment [post]
func (h *AppointmentHandler) Create(c echo.Context) error {
	callerID, err := uuid.Parse(middleware.UserID(c))
	if err != nil {
		return unauthorized()
	}

	var req CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	appointment, err := h.bookings.Create(c.Request().Context(), callerID, uuid.MustParse(req.Doctor), req.Date)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, appointment)
}

// List godoc
// @Summary List the caller's appointments
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Appointment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /appointment [get]
func (h *AppointmentHandler) List(c echo.Context) error {
	callerID, err := uuid.Parse(middleware.UserID(c))
	if err != nil {
		return unauthorized()
	}

	appointments, err := h.bookings.List(c.Request().Context(), callerID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, appointments)
}

// Confirm godoc
// @Summary Confirm an appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} model.Appointment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /appointment/{id}/confirm [post]
func (h *AppointmentHandler) Confirm(c echo.Context) error {
	callerID, appointmentID, err := h.ids(c)
	if err != nil {
		return err
	}

	appointment, err := h.bookings.Confirm(c.Request().Context(), callerID, appointmentID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} model.Appointment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /appointment/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	callerID, appointmentID, err := h.ids(c)
	if err != nil {
		return err
	}

	appointment, err := h.bookings.Cancel(c.Request().Context(), callerID, appointmentID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandler) ids(c echo.Context) (callerID, appointmentID uuid.UUID, err error) {
	callerID, err = uuid.Parse(middleware.UserID(c))
	if err != nil {
		return uuid.Nil, uuid.Nil, unauthorized()
	}
	appointmentID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, badRequest("invalid appointment id")
	}
	return callerID, appointmentID, nil
}
