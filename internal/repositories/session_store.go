package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"busbooking/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists the per-client pipeline state so a reload (or a
// process restart) resumes where the client left off. Both implementations
// also keep the pre-sign-in return path, consumed exactly once.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (models.SessionState, bool, error)
	Set(ctx context.Context, sessionID string, state models.SessionState) error
	Clear(ctx context.Context, sessionID string) error

	SaveReturnTo(ctx context.Context, sessionID, returnTo string) error
	ConsumeReturnTo(ctx context.Context, sessionID string) (string, error)
}

// MemorySessionStore keeps encoded state so callers never share slices with
// the store.
type MemorySessionStore struct {
	mu      sync.Mutex
	states  map[string][]byte
	returns map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{states: map[string][]byte{}, returns: map[string]string{}}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (models.SessionState, bool, error) {
	s.mu.Lock()
	raw, ok := s.states[id]
	s.mu.Unlock()
	if !ok {
		return models.SessionState{}, false, nil
	}
	var st models.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return models.SessionState{}, false, err
	}
	return st, true, nil
}

func (s *MemorySessionStore) Set(_ context.Context, id string, st models.SessionState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.states[id] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.states, id)
	delete(s.returns, id)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) SaveReturnTo(_ context.Context, id, returnTo string) error {
	s.mu.Lock()
	s.returns[id] = returnTo
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) ConsumeReturnTo(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.returns[id]
	delete(s.returns, id)
	return v, nil
}

const (
	sessionKeyPrefix  = "session:"
	defaultSessionTTL = 24 * time.Hour
)

// RedisSessionStore stores state as JSON under session:<id>.
type RedisSessionStore struct {
	Client redis.Cmdable
	TTL    time.Duration
}

func (s RedisSessionStore) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultSessionTTL
}

func stateKey(id string) string  { return sessionKeyPrefix + id }
func returnKey(id string) string { return sessionKeyPrefix + id + ":return_to" }

func (s RedisSessionStore) Get(ctx context.Context, id string) (models.SessionState, bool, error) {
	raw, err := s.Client.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SessionState{}, false, nil
	}
	if err != nil {
		return models.SessionState{}, false, err
	}
	var st models.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return models.SessionState{}, false, err
	}
	return st, true, nil
}

func (s RedisSessionStore) Set(ctx context.Context, id string, st models.SessionState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, stateKey(id), raw, s.ttl()).Err()
}

func (s RedisSessionStore) Clear(ctx context.Context, id string) error {
	return s.Client.Del(ctx, stateKey(id), returnKey(id)).Err()
}

func (s RedisSessionStore) SaveReturnTo(ctx context.Context, id, returnTo string) error {
	return s.Client.Set(ctx, returnKey(id), returnTo, s.ttl()).Err()
}

// ConsumeReturnTo uses GETDEL so concurrent logins cannot both see the path.
func (s RedisSessionStore) ConsumeReturnTo(ctx context.Context, id string) (string, error) {
	v, err := s.Client.GetDel(ctx, returnKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}
