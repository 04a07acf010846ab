package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"medbook/internal/auth"
	apperrors "medbook/internal/errors"
)

const (
	claimsKey = "claims"
	userIDKey = "user_id"
)

// AccessVerifier validates bearer access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// RequireAuth guards a route group with a bearer access token. On success
// the caller's id is available through UserID.
func RequireAuth(verifier AccessVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return verifier.VerifyAccess(token)
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(claimsKey).(*auth.Claims); ok {
				c.Set(userIDKey, claims.UserID)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Message: "unauthorized",
				Code:    "UNAUTHORIZED",
			})
		},
	})
}

// UserID returns the authenticated caller's id, or "" outside a guarded route.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
