package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store is a persistence backend for users.
// Implementations must enforce email uniqueness at the storage layer and
// report violations as ErrDuplicateEmail.
type Store interface {
	// Connect verifies connectivity and prepares schema (indexes, migrations)
	Connect(ctx context.Context) error
	// Disconnect releases the underlying connection
	Disconnect(ctx context.Context) error
	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
}
