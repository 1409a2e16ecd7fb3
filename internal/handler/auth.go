// Package handler exposes the auth flows over HTTP. Handlers translate
// between the JSON envelope and the services, and own cookie mechanics.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/financeflow/financeflow-api/internal/apperr"
	"github.com/financeflow/financeflow-api/internal/auth"
	"github.com/financeflow/financeflow-api/internal/config"
	"github.com/financeflow/financeflow-api/internal/service"
)

// envelope is the JSON response shape shared by all auth endpoints.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// AuthHandler bundles dependencies for the password-auth endpoints.
type AuthHandler struct {
	Cfg config.Config
	Svc *service.AuthService
	Log *zap.Logger
}

func NewAuthHandler(cfg config.Config, svc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Svc: svc, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name"`
	AccountName     string `json:"accountName"`
	AccountType     string `json:"accountType"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup: validate, create user + account, issue first session.
// 201 on success; 400 with a field->message map collecting every violation;
// 409 when the email is taken.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Error: "Invalid request body"})
	}

	res, err := h.Svc.Signup(c.Request().Context(), service.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Name,
		AccountName:     req.AccountName,
		AccountType:     req.AccountType,
		Meta:            sessionMeta(c),
	})
	if err != nil {
		return h.fail(c, err)
	}

	setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt, h.Cfg.IsProd())
	return c.JSON(http.StatusCreated, envelope{
		Success: true,
		Data: echo.Map{
			"accessToken": res.AccessToken,
			"user":        res.User,
		},
	})
}

// Login: verify credentials, revoke prior sessions, issue a new one.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, envelope{Error: "Email and password are required"})
	}

	res, err := h.Svc.Login(c.Request().Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Meta:     sessionMeta(c),
	})
	if err != nil {
		return h.fail(c, err)
	}

	setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt, h.Cfg.IsProd())
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Data: echo.Map{
			"accessToken": res.AccessToken,
			"user":        res.User,
		},
	})
}

// Logout: revoke the cookie's session and clear the cookie. Idempotent;
// responds success even when no valid token was presented.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := readRefreshCookie(c)
	if err := h.Svc.Logout(c.Request().Context(), token); err != nil {
		clearRefreshCookie(c)
		return h.fail(c, err)
	}
	clearRefreshCookie(c)
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "Logged out successfully"})
}

// Refresh: exchange the refresh cookie for a new access token. The refresh
// cookie is only re-set when rotation is enabled.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := readRefreshCookie(c)
	res, err := h.Svc.Refresh(c.Request().Context(), token, sessionMeta(c))
	if err != nil {
		return h.fail(c, err)
	}

	if res.RotatedRefreshToken != "" {
		setRefreshCookie(c, res.RotatedRefreshToken, res.RotatedExpiresAt, h.Cfg.IsProd())
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    echo.Map{"accessToken": res.AccessToken},
	})
}

// Me: return the identity claims resolved by the access-token middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	payload := IdentityFrom(c)
	if payload == nil {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "Unauthorized"})
	}
	data := echo.Map{
		"id":    payload.Sub,
		"email": payload.Email,
		"role":  payload.Role,
	}
	if payload.Name != "" {
		data["name"] = payload.Name
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// fail maps service errors onto the envelope. Internal reasons are logged
// and never leak to the caller.
func (h *AuthHandler) fail(c echo.Context, err error) error {
	var (
		ve *apperr.ValidationError
		ce *apperr.ConflictError
		ae *apperr.AuthError
		ue *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, envelope{Error: "Validation failed", Errors: ve.Fields})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, envelope{Error: ce.Message, Errors: ce.Fields})
	case errors.As(err, &ae):
		h.Log.Info("authentication failed",
			zap.String("path", c.Path()), zap.String("reason", ae.Reason))
		return c.JSON(http.StatusUnauthorized, envelope{Error: ae.Message})
	case errors.As(err, &ue):
		h.Log.Warn("upstream provider failure",
			zap.String("path", c.Path()), zap.Error(ue))
		return c.JSON(http.StatusUnauthorized, envelope{Error: ue.Message})
	default:
		h.Log.Error("unexpected auth failure", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, envelope{Error: "Internal server error"})
	}
}

// IdentityFrom returns the access-token claims stored in the context by the
// JWTAuth middleware, or nil when the request was not authenticated.
func IdentityFrom(c echo.Context) *auth.AccessPayload {
	payload, _ := c.Get("identity").(*auth.AccessPayload)
	return payload
}

// sessionMeta captures the client metadata stored on each session row.
func sessionMeta(c echo.Context) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}
