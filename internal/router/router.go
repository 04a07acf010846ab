package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"medbook/internal/handler"
	"medbook/internal/middleware"
)

// Deps bundles what the routes need.
type Deps struct {
	Logger       zerolog.Logger
	Verifier     middleware.AccessVerifier
	Limiter      *middleware.RateLimiter
	Auth         *handler.AuthHandler
	Appointments *handler.AppointmentHandler
	Users        *handler.UserHandler
	// Seed is routed only when non-nil.
	Seed *handler.SeedHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(d.Logger))
	e.Use(middleware.Recovery(d.Logger))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	limited := []echo.MiddlewareFunc{}
	if d.Limiter != nil {
		limited = append(limited, d.Limiter.Middleware())
	}
	guard := middleware.RequireAuth(d.Verifier)

	// Auth routes
	authGroup := e.Group("/auth")
	authGroup.POST("/register", d.Auth.Register, limited...)
	authGroup.POST("/log-in", d.Auth.Login, limited...)
	authGroup.GET("/refresh", d.Auth.Refresh)
	authGroup.GET("/log-out", d.Auth.Logout, guard)

	// Appointment routes
	appointments := e.Group("/appointment", guard)
	appointments.POST("", d.Appointments.Create)
	appointments.GET("", d.Appointments.List)
	appointments.POST("/:id/confirm", d.Appointments.Confirm)
	appointments.POST("/:id/cancel", d.Appointments.Cancel)

	// Directory
	e.GET("/user/doctor", d.Users.ListDoctors)

	if d.Seed != nil {
		e.POST("/seed/doctors", d.Seed.SeedDoctors)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
