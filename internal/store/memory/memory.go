package memory

import (
	"context"
	"sync"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store"
)

// Store keeps credentials in a process-local map. This is the default
// backend: registrations live exactly as long as the server process.
type Store struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// New returns an empty in-memory credential store.
func New() *Store {
	return &Store{
		secrets: make(map[string]string),
	}
}

// CreateUser stores the pair, rejecting duplicates.
func (s *Store) CreateUser(_ context.Context, username, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.secrets[username]; exists {
		return store.ErrDuplicateUser
	}
	s.secrets[username] = secret
	return nil
}

// GetSecret returns the stored secret for username.
func (s *Store) GetSecret(_ context.Context, username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[username]
	if !ok {
		return "", store.ErrUnknownUser
	}
	return secret, nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() error {
	return nil
}
