package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spark-career/spark/internal/platform/cache"
)

// Backend persists serialised session state with idle expiry.
type Backend interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Touch(ctx context.Context, id string, ttl time.Duration) error
}

// Store creates, loads and updates session state. Updates to one session
// run one at a time; different sessions proceed in parallel.
type Store struct {
	backend Backend
	ttl     time.Duration
	locks   *keyedMutex
	now     func() time.Time
}

// NewStore creates a store over backend with the given idle lifetime.
func NewStore(backend Backend, ttl time.Duration) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// Create starts a new session with a random id.
func (s *Store) Create(ctx context.Context) (*State, error) {
	st := NewState(uuid.NewString(), s.now())
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	slog.Debug("session created", "session_id", st.ID)
	return st, nil
}

// Get returns a snapshot of the session and extends its lifetime.
func (s *Store) Get(ctx context.Context, id string) (*State, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Touch(ctx, id, s.ttl); err != nil {
		slog.Warn("failed to extend session", "session_id", id, "error", err)
	}
	return st, nil
}

// Update applies fn to the session under its lock and saves the result. A
// non-nil error from fn discards the changes.
func (s *Store) Update(ctx context.Context, id string, fn func(*State) error) (*State, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	st.UpdatedAt = s.now()
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) load(ctx context.Context, id string) (*State, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	data, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &st, nil
}

func (s *Store) save(ctx context.Context, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", st.ID, err)
	}
	return s.backend.Save(ctx, st.ID, data, s.ttl)
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		if e.refs--; e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// MemoryBackend keeps sessions in process memory.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryBackend) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok || !m.now().Before(e.expires) {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return e.data, nil
}

func (m *MemoryBackend) Save(_ context.Context, id string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memoryEntry{data: data, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryBackend) Touch(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	e.expires = m.now().Add(ttl)
	m.sessions[id] = e
	return nil
}

// Sweep drops expired sessions and returns their ids.
func (m *MemoryBackend) Sweep() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var expired []string
	for id, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper calls Sweep every interval until ctx is done, passing each
// expired id to onExpire.
func (m *MemoryBackend) RunSweeper(ctx context.Context, interval time.Duration, onExpire func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := m.Sweep()
			for _, id := range expired {
				if onExpire != nil {
					onExpire(id)
				}
			}
			if len(expired) > 0 {
				slog.Debug("expired sessions swept", "count", len(expired))
			}
		}
	}
}

// RedisBackend keeps sessions in Redis. The Store's per-session lock is
// per process, so updates arriving at two replicas are not serialised.
type RedisBackend struct {
	cache *cache.Cache
}

// NewRedisBackend stores sessions through c.
func NewRedisBackend(c *cache.Cache) *RedisBackend {
	return &RedisBackend{cache: c}
}

func (r *RedisBackend) Load(ctx context.Context, id string) ([]byte, error) {
	data, err := r.cache.Get(ctx, sessionKey(id))
	if errors.Is(err, cache.ErrMiss) {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return data, err
}

func (r *RedisBackend) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return r.cache.Set(ctx, sessionKey(id), data, ttl)
}

func (r *RedisBackend) Touch(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := r.cache.Touch(ctx, sessionKey(id), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

func sessionKey(id string) string {
	return "session:" + id
}
