package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
)

// Middleware returns echo middleware that requires a valid Bearer token and
// stores the caller's identity on the request context.
func Middleware(tm *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header must be a bearer token")
			}

			claims, err := tm.Verify(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userIDKey, claims.Subject)
			c.Set(userNameKey, claims.Name)
			c.Set(userEmailKey, claims.Email)

			return next(c)
		}
	}
}

// UserID returns the authenticated user's ID, or "" if the request is
// unauthenticated.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// UserName returns the authenticated user's display name.
func UserName(c echo.Context) string {
	name, _ := c.Get(userNameKey).(string)
	return name
}

// UserEmail returns the authenticated user's email.
func UserEmail(c echo.Context) string {
	email, _ := c.Get(userEmailKey).(string)
	return email
}
