package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps policies in a map. It backs dry runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	suffix   string
	policies map[string]string
	closed   bool
}

// NewMemoryStore creates an empty store that keys policies like RedisStore.
func NewMemoryStore(suffix string) *MemoryStore {
	return &MemoryStore{
		suffix:   suffix,
		policies: make(map[string]string),
	}
}

// Publish stores policy under the client's key.
func (s *MemoryStore) Publish(ctx context.Context, client, policy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.policies[Key(client, s.suffix)] = policy
	return nil
}

// Fetch returns the client's policy or ErrNotFound.
func (s *MemoryStore) Fetch(ctx context.Context, client string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrClosed
	}
	policy, ok := s.policies[Key(client, s.suffix)]
	if !ok {
		return "", ErrNotFound
	}
	return policy, nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.policies))
	for k := range s.policies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close marks the store closed; later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
