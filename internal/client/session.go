// Package client provides the session agent used by callers of the auth
// API. A Session holds the access token and last-known user in memory only;
// the refresh token lives in the HTTP cookie jar and is never exposed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
)

// User is the identity shape returned by the auth endpoints.
type User struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type authEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		AccessToken string `json:"accessToken"`
		User        *User  `json:"user"`
	} `json:"data"`
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

// Session is an explicit session-context object: construct one per logical
// client, no package-level state. Safe for concurrent use.
type Session struct {
	base string
	http *http.Client

	mu          sync.Mutex
	accessToken string
	user        *User
}

// New builds a Session for the given API base URL. The underlying client
// carries a cookie jar so refresh cookies flow automatically.
func New(baseURL string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Session{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Jar: jar},
	}, nil
}

// SignupParams mirrors the signup request body.
type SignupParams struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name,omitempty"`
	AccountName     string `json:"accountName,omitempty"`
	AccountType     string `json:"accountType,omitempty"`
}

// Signup registers a new user and adopts the returned session.
func (s *Session) Signup(ctx context.Context, params SignupParams) (*User, error) {
	return s.authenticate(ctx, "/auth/signup", params)
}

// Login authenticates with email and password and adopts the session.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	return s.authenticate(ctx, "/auth/login", body)
}

func (s *Session) authenticate(ctx context.Context, path string, body any) (*User, error) {
	var env authEnvelope
	if err := s.postJSON(ctx, path, body, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("authentication failed: %s", env.Error)
	}
	s.mu.Lock()
	s.accessToken = env.Data.AccessToken
	s.user = env.Data.User
	s.mu.Unlock()
	return env.Data.User, nil
}

// Refresh exchanges the refresh cookie for a new access token.
func (s *Session) Refresh(ctx context.Context) error {
	var env authEnvelope
	if err := s.postJSON(ctx, "/auth/refresh", nil, &env); err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("refresh failed: %s", env.Error)
	}
	s.mu.Lock()
	s.accessToken = env.Data.AccessToken
	s.mu.Unlock()
	return nil
}

// Logout revokes the server-side session and drops local state.
func (s *Session) Logout(ctx context.Context) error {
	var env authEnvelope
	if err := s.postJSON(ctx, "/auth/logout", nil, &env); err != nil {
		return err
	}
	s.mu.Lock()
	s.accessToken = ""
	s.user = nil
	s.mu.Unlock()
	return nil
}

// Me fetches the identity behind the current access token, refreshing once
// through Do if it has gone stale.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.Do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env struct {
		Success bool   `json:"success"`
		Data    *User  `json:"data"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("me failed: %s", env.Error)
	}
	return env.Data, nil
}

// AccessToken returns the current access token, "" when logged out.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// CurrentUser returns the last-known user, nil when logged out.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Do performs an authenticated request to the API. On a 401 it runs exactly
// one silent refresh and one retry; if the refresh itself fails, the
// original 401 is returned so callers never loop.
func (s *Session) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := s.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if refreshErr := s.Refresh(ctx); refreshErr != nil {
		return resp, nil
	}
	resp.Body.Close()
	return s.send(ctx, method, path, body)
}

func (s *Session) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.http.Do(req)
}

func (s *Session) postJSON(ctx context.Context, path string, body any, out *authEnvelope) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	resp, err := s.send(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}
