package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/financeflow/financeflow-api/internal/apperr"
	"github.com/financeflow/financeflow-api/internal/model"
	"github.com/financeflow/financeflow-api/internal/queue"
)

// ProviderGoogle is the only provider wired today.
const ProviderGoogle = "google"

type OAuthStore interface {
	GetByProviderAccount(ctx context.Context, provider, providerAccountID string) (*model.OAuthAccount, error)
	Create(ctx context.Context, a *model.OAuthAccount) error
}

// StateStore holds pending anti-CSRF state values across the provider
// redirect. Consume must be one-shot.
type StateStore interface {
	Put(ctx context.Context, state string) error
	Consume(ctx context.Context, state string) (bool, error)
}

// CodeExchanger swaps an authorization code for provider tokens.
// The default implementation is oauth2.Config.Exchange; tests fake it.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// IdentityClaims is the subset of the provider's ID token this service uses.
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IDTokenVerifier checks an ID token's signature and audience against the
// provider's published keys.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken, audience string) (*IdentityClaims, error)
}

type googleVerifier struct{}

func (googleVerifier) Verify(ctx context.Context, rawIDToken, audience string) (*IdentityClaims, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, audience)
	if err != nil {
		return nil, err
	}
	claims := &IdentityClaims{Subject: payload.Subject}
	claims.Email, _ = payload.Claims["email"].(string)
	claims.Name, _ = payload.Claims["name"].(string)
	claims.Picture, _ = payload.Claims["picture"].(string)
	return claims, nil
}

type oauthExchanger struct{ cfg *oauth2.Config }

func (e oauthExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return e.cfg.Exchange(ctx, code)
}

// OAuthService runs the Google account-linking flow and hands off to the
// AuthService for local token issuance.
type OAuthService struct {
	cfg       *oauth2.Config
	exchanger CodeExchanger
	verifier  IDTokenVerifier
	users     UserStore
	accounts  AccountStore
	links     OAuthStore
	states    StateStore
	sessions  *AuthService
	events    EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewOAuthService(clientID, clientSecret, appBaseURL string,
	users UserStore, accounts AccountStore, links OAuthStore, states StateStore,
	sessions *AuthService, events EventPublisher, log *zap.Logger) *OAuthService {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(appBaseURL, "/") + "/auth/oauth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
	return &OAuthService{
		cfg:       cfg,
		exchanger: oauthExchanger{cfg: cfg},
		verifier:  googleVerifier{},
		users:     users,
		accounts:  accounts,
		links:     links,
		states:    states,
		sessions:  sessions,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// WithExchanger and WithVerifier swap the provider edges. Test hooks.
func (s *OAuthService) WithExchanger(e CodeExchanger) *OAuthService {
	s.exchanger = e
	return s
}

func (s *OAuthService) WithVerifier(v IDTokenVerifier) *OAuthService {
	s.verifier = v
	return s
}

// AuthorizeURL issues a one-shot state value and builds the consent-screen
// redirect URL.
func (s *OAuthService) AuthorizeURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.states.Put(ctx, state); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	url := s.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return url, nil
}

// Callback handles the provider redirect: consumes the state, exchanges the
// code, verifies the returned identity token and maps the external identity
// to a local user, creating user, account and link records as needed. On
// success it issues a local session exactly like login.
func (s *OAuthService) Callback(ctx context.Context, code, state string, meta SessionMeta) (*AuthResult, error) {
	if code == "" {
		return nil, apperr.NewValidation(map[string]string{"code": "Missing authorization code"})
	}
	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	if !ok {
		return nil, apperr.NewAuth("Google authentication failed", "unknown or expired oauth state")
	}

	token, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, &apperr.UpstreamError{Message: "Google authentication failed", Err: err}
	}
	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, &apperr.UpstreamError{Message: "Failed to retrieve id_token"}
	}

	claims, err := s.verifier.Verify(ctx, rawIDToken, s.cfg.ClientID)
	if err != nil {
		return nil, &apperr.UpstreamError{Message: "Google authentication failed", Err: err}
	}
	if claims.Email == "" {
		return nil, &apperr.UpstreamError{Message: "Invalid Google payload"}
	}
	email := strings.ToLower(claims.Email)

	u, created, err := s.resolveUser(ctx, claims, email, token, rawIDToken)
	if err != nil {
		return nil, err
	}

	// The OAuth path issues a session without revoking prior ones; only the
	// password login enforces single-active-session.
	res, err := s.sessions.IssueSession(ctx, u, meta)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	if created {
		s.publishEvent(ctx, queue.QueueSignedUp, queue.SignedUpEvent{
			UserID:    u.ID,
			Email:     u.Email,
			Provider:  ProviderGoogle,
			SignedUp:  now,
			UserAgent: meta.UserAgent,
		})
	}
	s.publishEvent(ctx, queue.QueueLoggedIn, queue.LoggedInEvent{
		UserID:    u.ID,
		Email:     u.Email,
		Provider:  ProviderGoogle,
		LoggedIn:  now,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	})
	return res, nil
}

// resolveUser maps the external identity to a local user:
// (a) an existing link wins; (b) else a user with the same email is adopted
// (implicit link by email — deliberate, see DESIGN.md); (c) else a new user
// plus companion account is created. Cases (b) and (c) record the link.
func (s *OAuthService) resolveUser(ctx context.Context, claims *IdentityClaims, email string,
	token *oauth2.Token, rawIDToken string) (*model.User, bool, error) {

	link, err := s.links.GetByProviderAccount(ctx, ProviderGoogle, claims.Subject)
	if err != nil {
		return nil, false, fmt.Errorf("lookup oauth link: %w", err)
	}
	if link != nil {
		u, err := s.users.GetByID(ctx, link.UserID)
		if err != nil {
			return nil, false, fmt.Errorf("lookup linked user: %w", err)
		}
		if u == nil {
			return nil, false, apperr.NewAuth("Google authentication failed", "link points at missing user")
		}
		return u, false, nil
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("lookup user by email: %w", err)
	}
	created := false
	if u != nil {
		if u.PasswordHash != nil {
			s.log.Warn("adopting existing password account via oauth email match",
				zap.String("user_id", u.ID), zap.String("provider", ProviderGoogle))
		}
	} else {
		created = true
		now := s.now().UTC()
		u = &model.User{
			Email:           email,
			Role:            "user",
			EmailVerifiedAt: &now,
		}
		if claims.Name != "" {
			name := claims.Name
			u.Name = &name
		}
		if claims.Picture != "" {
			picture := claims.Picture
			u.Image = &picture
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, false, fmt.Errorf("create user: %w", err)
		}

		accountName := model.DefaultAccountName
		if claims.Name != "" {
			accountName = claims.Name + " Account"
		}
		account := &model.Account{
			UserID: u.ID,
			Name:   accountName,
			Type:   model.AccountTypeIndividual,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, false, fmt.Errorf("create account: %w", err)
		}
	}

	newLink := &model.OAuthAccount{
		UserID:            u.ID,
		Provider:          ProviderGoogle,
		ProviderAccountID: claims.Subject,
		IDToken:           &rawIDToken,
	}
	if token.AccessToken != "" {
		at := token.AccessToken
		newLink.AccessToken = &at
	}
	if token.RefreshToken != "" {
		rt := token.RefreshToken
		newLink.RefreshToken = &rt
	}
	if !token.Expiry.IsZero() {
		exp := token.Expiry.Unix()
		newLink.ExpiresAt = &exp
	}
	if tt := token.TokenType; tt != "" {
		newLink.TokenType = &tt
	}
	if err := s.links.Create(ctx, newLink); err != nil {
		return nil, false, fmt.Errorf("create oauth link: %w", err)
	}
	return u, created, nil
}

func (s *OAuthService) publishEvent(ctx context.Context, q string, event any) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, q, event)
}
