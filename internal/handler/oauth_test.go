package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/financeflow/financeflow-api/internal/auth"
	"github.com/financeflow/financeflow-api/internal/config"
	"github.com/financeflow/financeflow-api/internal/model"
	"github.com/financeflow/financeflow-api/internal/service"
)

type stubOAuthLinks struct {
	links []*model.OAuthAccount
}

func (s *stubOAuthLinks) GetByProviderAccount(_ context.Context, provider, providerAccountID string) (*model.OAuthAccount, error) {
	for _, l := range s.links {
		if l.Provider == provider && l.ProviderAccountID == providerAccountID {
			return l, nil
		}
	}
	return nil, nil
}

func (s *stubOAuthLinks) Create(_ context.Context, a *model.OAuthAccount) error {
	s.links = append(s.links, a)
	return nil
}

type stubStates struct{ states map[string]bool }

func (s *stubStates) Put(_ context.Context, state string) error {
	s.states[state] = true
	return nil
}

func (s *stubStates) Consume(_ context.Context, state string) (bool, error) {
	if s.states[state] {
		delete(s.states, state)
		return true, nil
	}
	return false, nil
}

type stubExchanger struct{ token *oauth2.Token }

func (s stubExchanger) Exchange(_ context.Context, _ string) (*oauth2.Token, error) {
	return s.token, nil
}

type stubVerifier struct{ claims *service.IdentityClaims }

func (s stubVerifier) Verify(_ context.Context, _, _ string) (*service.IdentityClaims, error) {
	return s.claims, nil
}

func oauthTestServer(t *testing.T) (*echo.Echo, *stubStates) {
	t.Helper()
	cfg := config.Config{Env: "test", AppBaseURL: "http://localhost:3000"}
	codec := auth.NewCodec("test-access-secret", "test-refresh-secret")
	stores := newStubStores()
	authSvc := service.NewAuthService(stores, stubAccounts{}, stubTokens{s: stores},
		codec, nil, zap.NewNop(), service.Options{})

	states := &stubStates{states: map[string]bool{}}
	tok := (&oauth2.Token{AccessToken: "provider-access", TokenType: "Bearer"}).
		WithExtra(map[string]interface{}{"id_token": "raw-id-token"})
	oauthSvc := service.NewOAuthService("client-id", "client-secret", cfg.AppBaseURL,
		stores, stubAccounts{}, &stubOAuthLinks{}, states, authSvc, nil, zap.NewNop()).
		WithExchanger(stubExchanger{token: tok}).
		WithVerifier(stubVerifier{claims: &service.IdentityClaims{
			Subject: "google-sub-1",
			Email:   "ada@example.com",
			Name:    "Ada",
		}})

	e := echo.New()
	h := NewOAuthHandler(cfg, oauthSvc, zap.NewNop())
	g := e.Group("/auth")
	g.GET("/oauth/google", h.GoogleAuthorize)
	g.GET("/oauth/google/callback", h.GoogleCallback)
	return e, states
}

func TestGoogleAuthorizeRedirects(t *testing.T) {
	e, states := oauthTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "accounts.google.com")
	assert.Contains(t, loc, "client_id=client-id")
	assert.Len(t, states.states, 1, "authorize must leave a pending state behind")
}

func TestGoogleCallbackSetsBothCookiesAndRedirects(t *testing.T) {
	e, states := oauthTestServer(t)
	states.states["state-1"] = true

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?code=auth-code&state=state-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:3000/", rec.Header().Get("Location"))

	var refresh, access *http.Cookie
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case RefreshCookieName:
			refresh = c
		case AccessCookieName:
			access = c
		}
	}
	require.NotNil(t, refresh)
	assert.Equal(t, http.SameSiteStrictMode, refresh.SameSite)
	require.NotNil(t, access, "the browser flow needs the access token as a cookie")
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, int(auth.AccessTokenTTL.Seconds()), access.MaxAge)
}

func TestGoogleCallbackMissingCode(t *testing.T) {
	e, _ := oauthTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?state=state-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Missing authorization code", body["error"])
}

func TestGoogleCallbackUnknownState(t *testing.T) {
	e, _ := oauthTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?code=auth-code&state=never-issued", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Google authentication failed", body["error"])
}
