package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists consumer accounts.
type Repository interface {
	// Create stores a new user, failing with ErrEmailTaken on a duplicate
	// email.
	Create(ctx context.Context, user *User) error

	// FindByEmail returns the user with the given email or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID returns the user with the given id or ErrUserNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}
