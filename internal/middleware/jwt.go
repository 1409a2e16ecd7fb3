// Package middleware contains reusable HTTP middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/financeflow/financeflow-api/internal/auth"
)

// JWTAuth validates an access token and injects its claims into the request
// context under "identity". The token is read from the Authorization bearer
// header, falling back to the access_token cookie set by the OAuth flow.
// Missing, malformed and expired tokens are deliberately indistinguishable:
// all three produce the same 401.
func JWTAuth(codec *auth.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if header := c.Request().Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				raw = strings.TrimPrefix(header, "Bearer ")
			} else if cookie, err := c.Cookie("access_token"); err == nil {
				raw = cookie.Value
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Unauthorized"})
			}

			payload := codec.VerifyAccess(raw)
			if payload == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Invalid or expired token"})
			}

			c.Set("identity", payload)
			return next(c)
		}
	}
}
