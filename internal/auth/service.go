package auth

import (
	"context"
	"fmt"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store"
)

// Service provides the register/verify contract over a credential store.
// With hashing disabled the stored secret is the raw password and Verify is
// byte equality; with hashing enabled the secret is a bcrypt digest.
type Service struct {
	creds store.Credentials
	hash  bool
}

// NewService creates an authentication service over the given store.
func NewService(creds store.Credentials, hashSecrets bool) *Service {
	return &Service{
		creds: creds,
		hash:  hashSecrets,
	}
}

// Register stores a new username/password pair.
// Fails with store.ErrDuplicateUser when the username is taken.
func (s *Service) Register(ctx context.Context, username, password string) error {
	secret := password
	if s.hash {
		hashed, err := HashPassword(password)
		if err != nil {
			return fmt.Errorf("register %q: %w", username, err)
		}
		secret = hashed
	}
	return s.creds.CreateUser(ctx, username, secret)
}

// Verify reports whether the password matches the stored secret for username.
// Unknown usernames simply fail verification.
func (s *Service) Verify(ctx context.Context, username, password string) bool {
	secret, err := s.creds.GetSecret(ctx, username)
	if err != nil {
		return false
	}
	if s.hash {
		return ComparePassword(secret, password) == nil
	}
	return secret == password
}
