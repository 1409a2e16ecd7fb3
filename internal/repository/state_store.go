package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps the anti-CSRF state values handed out when an OAuth flow
// starts. Each value lives until the provider redirects back or the TTL
// runs out, and is consumed exactly once so a replayed callback fails.
type StateStore struct {
	rdb *redis.Client
}

func NewStateStore(rdb *redis.Client) *StateStore { return &StateStore{rdb: rdb} }

// StateTTL bounds how long a pending authorization may take.
const StateTTL = 5 * time.Minute

func (s *StateStore) key(state string) string { return "oauth:state:" + state }

// Put records a freshly issued state value.
func (s *StateStore) Put(ctx context.Context, state string) error {
	return s.rdb.Set(ctx, s.key(state), "1", StateTTL).Err()
}

// Consume atomically checks and deletes a state value. False means the value
// was never issued, already used, or expired.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.rdb.GetDel(ctx, s.key(state)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
