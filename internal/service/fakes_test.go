package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/financeflow/financeflow-api/internal/model"
	"github.com/financeflow/financeflow-api/internal/repository"
)

// In-memory fakes for the store interfaces. They mimic the MySQL repos'
// contracts: (nil, nil) for not-found, ErrEmailExists on duplicates,
// revocation as an update.

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User // by id
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*model.User{}}
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type memAccountStore struct {
	mu       sync.Mutex
	accounts []*model.Account
}

func newMemAccountStore() *memAccountStore { return &memAccountStore{} }

func (s *memAccountStore) Create(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	s.accounts = append(s.accounts, &cp)
	return nil
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
	users  *memUserStore
}

func newMemTokenStore(users *memUserStore) *memTokenStore {
	return &memTokenStore{tokens: map[string]*model.RefreshToken{}, users: users}
}

func (s *memTokenStore) Create(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	s.tokens[t.ID] = &cp
	return nil
}

func (s *memTokenStore) GetWithUser(ctx context.Context, id string) (*model.RefreshToken, *model.User, error) {
	s.mu.Lock()
	t, ok := s.tokens[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil, nil
	}
	cp := *t
	s.mu.Unlock()

	u, err := s.users.GetByID(ctx, cp.UserID)
	if err != nil || u == nil {
		return nil, nil, err
	}
	return &cp, u, nil
}

func (s *memTokenStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (s *memTokenStore) activeCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID && t.IsActive(time.Now()) {
			n++
		}
	}
	return n
}

type memOAuthStore struct {
	mu    sync.Mutex
	links []*model.OAuthAccount
}

func newMemOAuthStore() *memOAuthStore { return &memOAuthStore{} }

func (s *memOAuthStore) GetByProviderAccount(_ context.Context, provider, providerAccountID string) (*model.OAuthAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.Provider == provider && l.ProviderAccountID == providerAccountID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memOAuthStore) Create(_ context.Context, a *model.OAuthAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.Provider == a.Provider && l.ProviderAccountID == a.ProviderAccountID {
			return repository.ErrLinkExists
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	s.links = append(s.links, &cp)
	return nil
}

type memStateStore struct {
	mu     sync.Mutex
	states map[string]bool
}

func newMemStateStore() *memStateStore { return &memStateStore{states: map[string]bool{}} }

func (s *memStateStore) Put(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = true
	return nil
}

func (s *memStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[state] {
		delete(s.states, state)
		return true, nil
	}
	return false, nil
}

type recordedEvent struct {
	Queue string
	Event any
}

type memPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *memPublisher) Publish(_ context.Context, queue string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Queue: queue, Event: event})
	return nil
}

func (p *memPublisher) queues() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Queue)
	}
	return out
}

// Fake provider edges for the OAuth bridge.

type fakeExchanger struct {
	token *oauth2.Token
	err   error
}

func (f *fakeExchanger) Exchange(_ context.Context, _ string) (*oauth2.Token, error) {
	return f.token, f.err
}

type fakeVerifier struct {
	claims *IdentityClaims
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string) (*IdentityClaims, error) {
	return f.claims, f.err
}

func tokenWithIDToken(idToken string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: "provider-access", TokenType: "Bearer"}
	return tok.WithExtra(map[string]interface{}{"id_token": idToken})
}
