package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/financeflow/financeflow-api/internal/apperr"
	"github.com/financeflow/financeflow-api/internal/config"
	"github.com/financeflow/financeflow-api/internal/service"
)

// OAuthHandler exposes the Google account-linking flow.
type OAuthHandler struct {
	Cfg config.Config
	Svc *service.OAuthService
	Log *zap.Logger
}

func NewOAuthHandler(cfg config.Config, svc *service.OAuthService, log *zap.Logger) *OAuthHandler {
	return &OAuthHandler{Cfg: cfg, Svc: svc, Log: log}
}

// GoogleAuthorize redirects the browser to Google's consent screen.
func (h *OAuthHandler) GoogleAuthorize(c echo.Context) error {
	url, err := h.Svc.AuthorizeURL(c.Request().Context())
	if err != nil {
		h.Log.Error("oauth authorize failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, envelope{Error: "Internal server error"})
	}
	return c.Redirect(http.StatusFound, url)
}

// GoogleCallback handles the provider redirect, issues local tokens and
// sends the browser back to the app home with cookies attached. Unlike the
// password login, this flow also sets the access token as a cookie.
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")

	res, err := h.Svc.Callback(c.Request().Context(), code, state, sessionMeta(c))
	if err != nil {
		return h.fail(c, err)
	}

	setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt, h.Cfg.IsProd())
	setAccessCookie(c, res.AccessToken, h.Cfg.IsProd())
	return c.Redirect(http.StatusFound, h.Cfg.AppBaseURL+"/")
}

func (h *OAuthHandler) fail(c echo.Context, err error) error {
	var (
		ve *apperr.ValidationError
		ae *apperr.AuthError
		ue *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, envelope{Error: "Missing authorization code", Errors: ve.Fields})
	case errors.As(err, &ae):
		h.Log.Info("oauth authentication failed", zap.String("reason", ae.Reason))
		return c.JSON(http.StatusUnauthorized, envelope{Error: ae.Message})
	case errors.As(err, &ue):
		h.Log.Warn("oauth provider failure", zap.Error(ue))
		return c.JSON(http.StatusUnauthorized, envelope{Error: ue.Message})
	default:
		h.Log.Error("unexpected oauth failure", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, envelope{Error: "Internal server error"})
	}
}
