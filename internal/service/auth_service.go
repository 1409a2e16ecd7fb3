// Package service orchestrates the auth flows: signup, login, logout,
// refresh and the OAuth bridge. Services are transport-free; HTTP concerns
// (cookies, status codes) live in the handler layer.
package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/financeflow/financeflow-api/internal/apperr"
	"github.com/financeflow/financeflow-api/internal/auth"
	"github.com/financeflow/financeflow-api/internal/model"
	"github.com/financeflow/financeflow-api/internal/queue"
	"github.com/financeflow/financeflow-api/internal/repository"
)

// Store interfaces cover exactly the persistence operations the auth core
// needs. The MySQL repos satisfy them; tests use in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
}

type TokenStore interface {
	Create(ctx context.Context, t *model.RefreshToken) error
	GetWithUser(ctx context.Context, id string) (*model.RefreshToken, *model.User, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// Options are the first-class policy switches of the auth service.
type Options struct {
	// RotateRefresh revokes the presented refresh session on every refresh
	// and issues a replacement. Off by default.
	RotateRefresh bool
	// LogoutAllDevices makes logout revoke every active session of the
	// user instead of just the presented one. Off by default.
	LogoutAllDevices bool
}

// AuthService composes the credential hasher, token codec and session store
// and enforces the auth invariants.
type AuthService struct {
	users    UserStore
	accounts AccountStore
	tokens   TokenStore
	codec    *auth.Codec
	events   EventPublisher
	log      *zap.Logger
	opts     Options
	now      func() time.Time
}

func NewAuthService(users UserStore, accounts AccountStore, tokens TokenStore,
	codec *auth.Codec, events EventPublisher, log *zap.Logger, opts Options) *AuthService {
	return &AuthService{
		users:    users,
		accounts: accounts,
		tokens:   tokens,
		codec:    codec,
		events:   events,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// WithClock overrides the service's time source. Test hook.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// UserInfo is the public identity shape returned by auth operations.
type UserInfo struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// SessionMeta is the client metadata captured on each issued session.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// AuthResult is the outcome of signup, login or an OAuth callback.
type AuthResult struct {
	User             UserInfo
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SignupInput carries the signup request fields plus client metadata.
type SignupInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name" validate:"omitempty,min=2"`
	AccountName     string `json:"accountName"`
	AccountType     string `json:"accountType"`
	Meta            SessionMeta
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations under the json field name, matching the API shape.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Signup validates the input, creates the user with its companion account
// and issues a first session. All violated rules are reported together, and
// no write happens until the validation gate passes.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	fields := map[string]string{}
	if err := validate.Struct(in); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				switch fe.Field() {
				case "email":
					if fe.Tag() == "required" {
						fields["email"] = "Email is required"
					} else {
						fields["email"] = "Invalid email format"
					}
				case "name":
					fields["name"] = "Name must be at least 2 characters"
				}
			}
		} else {
			return nil, fmt.Errorf("signup validation: %w", err)
		}
	}
	if strength := auth.CheckStrength(in.Password); !strength.Valid {
		fields["password"] = strings.Join(strength.Violations, "; ")
	}
	if in.Password != in.ConfirmPassword {
		fields["confirmPassword"] = "Passwords do not match"
	}
	if len(fields) > 0 {
		return nil, apperr.NewValidation(fields)
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, &apperr.ConflictError{
			Message: "Email already registered",
			Fields:  map[string]string{"email": "This email is already in use"},
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{Email: in.Email, PasswordHash: &hash, Role: "user"}
	if in.Name != "" {
		u.Name = &in.Name
	}
	if err := s.users.Create(ctx, u); err != nil {
		if err == repository.ErrEmailExists {
			return nil, &apperr.ConflictError{
				Message: "Email already registered",
				Fields:  map[string]string{"email": "This email is already in use"},
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	accountName := in.AccountName
	if accountName == "" {
		accountName = model.DefaultAccountName
	}
	account := &model.Account{
		UserID: u.ID,
		Name:   accountName,
		Type:   model.NormalizeAccountType(in.AccountType),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	res, err := s.IssueSession(ctx, u, in.Meta)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.QueueSignedUp, queue.SignedUpEvent{
		UserID:    u.ID,
		Email:     u.Email,
		Provider:  "password",
		SignedUp:  s.now().UTC().Format(time.RFC3339),
		UserAgent: in.Meta.UserAgent,
	})
	return res, nil
}

// LoginInput carries the login request fields plus client metadata.
type LoginInput struct {
	Email    string
	Password string
	Meta     SessionMeta
}

// Login verifies credentials and issues a new session. Every successful
// login first revokes the user's previously active sessions
// (single-active-session-per-login policy). Unknown email, passwordless
// account and wrong password all collapse to the same generic failure.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, apperr.NewValidation(map[string]string{
			"email": "Email and password are required",
		})
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, apperr.NewAuth("Invalid email or password", "no user for email")
	}
	if u.PasswordHash == nil {
		return nil, apperr.NewAuth("Invalid email or password", "oauth-only account has no password")
	}
	if !auth.VerifyPassword(in.Password, *u.PasswordHash) {
		return nil, apperr.NewAuth("Invalid email or password", "password mismatch")
	}

	// Revoke-then-create is a sequential pair, not a transaction. A racing
	// login can briefly leave two active sessions; accepted looseness.
	if err := s.tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("revoke prior sessions: %w", err)
	}

	res, err := s.IssueSession(ctx, u, in.Meta)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.QueueLoggedIn, queue.LoggedInEvent{
		UserID:    u.ID,
		Email:     u.Email,
		Provider:  "password",
		LoggedIn:  s.now().UTC().Format(time.RFC3339),
		UserAgent: in.Meta.UserAgent,
		IPAddress: in.Meta.IPAddress,
	})
	return res, nil
}

// IssueSession creates a refresh-token session row and signs the token
// pair. Shared by the password flows and the OAuth bridge.
func (s *AuthService) IssueSession(ctx context.Context, u *model.User, meta SessionMeta) (*AuthResult, error) {
	accessToken, err := s.codec.SignAccess(auth.AccessPayload{
		Sub:   u.ID,
		Email: u.Email,
		Role:  u.Role,
		Name:  u.DisplayName(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	record := &model.RefreshToken{
		UserID:    u.ID,
		ExpiresAt: s.now().UTC().Add(auth.RefreshTokenTTL),
	}
	if meta.UserAgent != "" {
		record.UserAgent = &meta.UserAgent
	}
	if meta.IPAddress != "" {
		record.IPAddress = &meta.IPAddress
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create refresh session: %w", err)
	}

	refreshToken, err := s.codec.SignRefresh(u.ID, record.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &AuthResult{
		User:             UserInfo{ID: u.ID, Email: u.Email, Name: u.Name},
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

// Logout revokes the session behind the presented refresh token. It is
// idempotent and unconditional: a missing, invalid or already-revoked token
// still counts as a successful logout. Only storage failures propagate.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	payload := s.codec.VerifyRefresh(refreshToken)
	if payload == nil {
		return nil
	}

	if s.opts.LogoutAllDevices {
		if err := s.tokens.RevokeAllForUser(ctx, payload.Sub); err != nil {
			return fmt.Errorf("revoke all sessions: %w", err)
		}
	} else if err := s.tokens.Revoke(ctx, payload.TokenID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.publish(ctx, queue.QueueLoggedOut, queue.LoggedOutEvent{
		UserID:    payload.Sub,
		TokenID:   payload.TokenID,
		LoggedOut: s.now().UTC().Format(time.RFC3339),
	})
	return nil
}

// RefreshResult is the outcome of a refresh. RotatedRefreshToken is set only
// when rotation is enabled; the caller then replaces the cookie.
type RefreshResult struct {
	AccessToken         string
	RotatedRefreshToken string
	RotatedExpiresAt    time.Time
}

// Refresh validates a refresh token against the store and mints a new
// access token from the user's current row, so role or name changes take
// effect immediately. The signature check runs before any store lookup.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, apperr.NewAuth("No refresh token provided", "missing cookie")
	}
	payload := s.codec.VerifyRefresh(refreshToken)
	if payload == nil {
		return nil, apperr.NewAuth("Invalid or expired refresh token", "bad signature or shape")
	}

	record, u, err := s.tokens.GetWithUser(ctx, payload.TokenID)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh session: %w", err)
	}
	if record == nil {
		return nil, apperr.NewAuth("Refresh token has been revoked", "session row not found")
	}
	if record.IsRevoked() {
		return nil, apperr.NewAuth("Refresh token has been revoked", "session revoked")
	}
	if record.IsExpired(s.now()) {
		return nil, apperr.NewAuth("Refresh token has expired", "session expired")
	}

	accessToken, err := s.codec.SignAccess(auth.AccessPayload{
		Sub:   u.ID,
		Email: u.Email,
		Role:  u.Role,
		Name:  u.DisplayName(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	res := &RefreshResult{AccessToken: accessToken}
	if s.opts.RotateRefresh {
		if err := s.tokens.Revoke(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("revoke rotated session: %w", err)
		}
		next := &model.RefreshToken{
			UserID:    u.ID,
			ExpiresAt: s.now().UTC().Add(auth.RefreshTokenTTL),
		}
		if meta.UserAgent != "" {
			next.UserAgent = &meta.UserAgent
		}
		if meta.IPAddress != "" {
			next.IPAddress = &meta.IPAddress
		}
		if err := s.tokens.Create(ctx, next); err != nil {
			return nil, fmt.Errorf("create rotated session: %w", err)
		}
		rotated, err := s.codec.SignRefresh(u.ID, next.ID)
		if err != nil {
			return nil, fmt.Errorf("sign rotated token: %w", err)
		}
		res.RotatedRefreshToken = rotated
		res.RotatedExpiresAt = next.ExpiresAt
	}
	return res, nil
}

// Me statelessly resolves an access token to its identity claims. No store
// round-trip: validity is signature plus expiry only.
func (s *AuthService) Me(token string) (*auth.AccessPayload, error) {
	if token == "" {
		return nil, apperr.NewAuth("Unauthorized", "missing access token")
	}
	payload := s.codec.VerifyAccess(token)
	if payload == nil {
		return nil, apperr.NewAuth("Invalid or expired token", "verification failed")
	}
	return payload, nil
}

// publish sends an event best effort; failures are already logged by the
// publisher and never fail the auth operation.
func (s *AuthService) publish(ctx context.Context, q string, event any) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, q, event)
}
