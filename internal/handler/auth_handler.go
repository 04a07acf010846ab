package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "medbook/internal/errors"
	"medbook/internal/middleware"
	"medbook/internal/model"
	"medbook/internal/service"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	identity     service.IdentityService
	cookieMaxAge time.Duration
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(identity service.IdentityService, cookieMaxAge time.Duration) *AuthHandler {
	return &AuthHandler{identity: identity, cookieMaxAge: cookieMaxAge}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=4,max=20"`
	Name           string `json:"name"`
	Type           string `json:"type" validate:"required,oneof=patient doctor"`
	Available      *bool  `json:"available"`
	Specialization string `json:"specialization"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries the access token; the refresh token travels in a cookie.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register godoc
// @Summary Register a patient or a doctor
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	user, err := h.identity.Register(c.Request().Context(), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		Role:           model.Role(req.Type),
		Available:      req.Available,
		Specialization: req.Specialization,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Header 200 {string} Set-Cookie "refreshToken"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/log-in [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	pair, err := h.identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return domainError(err)
	}

	c.SetCookie(h.refreshCookie(pair.RefreshToken, h.cookieMaxAge))
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: pair.AccessToken})
}

// Refresh godoc
// @Summary Rotate the refresh token and issue a new access token
// @Tags auth
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [get]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return domainError(apperrors.ErrBadRefreshToken)
	}

	pair, err := h.identity.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return domainError(err)
	}

	c.SetCookie(h.refreshCookie(pair.RefreshToken, h.cookieMaxAge))
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: pair.AccessToken})
}

// Logout godoc
// @Summary Close the current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/log-out [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := uuid.Parse(middleware.UserID(c))
	if err != nil {
		return unauthorized()
	}

	if cookie, err := c.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		if err := h.identity.Logout(c.Request().Context(), userID, cookie.Value); err != nil {
			return domainError(err)
		}
	}

	c.SetCookie(h.refreshCookie("", -1))
	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// refreshCookie builds the refresh cookie. A negative maxAge clears it.
func (h *AuthHandler) refreshCookie(value string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(maxAge / time.Second),
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	}
	return cookie
}
