package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const statePrefix = "oauth:state:"

// StateStore holds single-use OAuth state tokens.
type StateStore struct {
	rc  *redis.Client
	now func() time.Time

	mu      sync.Mutex
	pending map[string]time.Time
}

func NewStateStore(rc *redis.Client) *StateStore {
	return &StateStore{rc: rc, now: time.Now, pending: map[string]time.Time{}}
}

// Save stores a state token for ttl (10 minutes when ttl is not positive).
func (s *StateStore) Save(ctx context.Context, state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.rc.Set(ctx, statePrefix+state, "1", ttl).Err(); err == nil {
			return
		}
	}
	s.mu.Lock()
	s.pending[state] = s.now().Add(ttl)
	s.mu.Unlock()
}

// Consume validates and removes a state token. A token is accepted at most once.
func (s *StateStore) Consume(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if v, err := s.rc.GetDel(ctx, statePrefix+state).Result(); err == nil && v != "" {
			return true
		}
	}
	s.mu.Lock()
	expiresAt, ok := s.pending[state]
	if ok {
		delete(s.pending, state)
	}
	s.mu.Unlock()
	return ok && s.now().Before(expiresAt)
}
