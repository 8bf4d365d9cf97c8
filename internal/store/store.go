package store

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateUser is returned when registering a username that is taken.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrUnknownUser is returned when looking up a username that was never registered.
	ErrUnknownUser = errors.New("unknown user")
)

// Credentials is the username -> secret mapping queried by the auth gate.
// The secret is whatever the auth service chose to persist: the raw password
// by default, a bcrypt digest when hashing is enabled. Implementations must
// be safe for concurrent use.
type Credentials interface {
	// CreateUser stores a new username/secret pair. Usernames are unique;
	// a taken name fails with ErrDuplicateUser. Users are never deleted.
	CreateUser(ctx context.Context, username, secret string) error

	// GetSecret returns the stored secret for a username, or ErrUnknownUser.
	GetSecret(ctx context.Context, username string) (string, error)

	// Close releases any underlying resources.
	Close() error
}
