package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/financeflow/financeflow-api/internal/auth"
)

// Cookie names shared with the session agent.
const (
	RefreshCookieName = "refresh_token"
	AccessCookieName  = "access_token"
)

// setRefreshCookie stores the refresh token in a protected cookie:
// HTTP-only, SameSite=Strict, Secure in production, 7-day max age.
func setRefreshCookie(c echo.Context, token string, expiresAt time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

// setAccessCookie stores the access token as a cookie. Only the OAuth
// callback uses this; the password flows return the token in the body.
func setAccessCookie(c echo.Context, token string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     AccessCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.AccessTokenTTL.Seconds()),
	})
}

// clearRefreshCookie expires the refresh cookie.
func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// readRefreshCookie returns the refresh token cookie value, "" when absent.
func readRefreshCookie(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
