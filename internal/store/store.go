package store

import (
	"context"
	"errors"
	"sync"
)

// Storage keys for persisted auth state. The access and refresh tokens are
// stored in plaintext; the session record is ciphertext only.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refreshToken"
	KeySession      = "session"
)

var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the persistent string store backing the session manager.
// Implementations must return ErrKeyNotFound for absent keys. Only the
// session manager writes these keys, so last-writer-wins semantics suffice.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
