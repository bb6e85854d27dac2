package users

import (
	"context"
	"errors"
	"time"
)

var ErrEmailTaken = errors.New("users: email already registered")

// User is the gateway's local user record. PasswordHash is nil for
// magic-link-only accounts; BackendUserID is nil until the backend
// identity system has acknowledged the record.
type User struct {
	ID            string
	Email         string
	PasswordHash  *string
	Name          *string
	EmailVerified *time.Time
	BackendUserID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser carries the fields of a row about to be created.
type NewUser struct {
	Email         string
	PasswordHash  *string
	Name          *string
	EmailVerified *time.Time
}

// Store defines how user rows are stored and retrieved. The store's
// unique index on email is the only concurrency control: concurrent
// creates for the same address surface as ErrEmailTaken.
type Store interface {
	Create(ctx context.Context, u NewUser) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// FindOrCreateByEmail backs the OIDC sign-in path: an identity
	// asserted by the provider maps onto the local row by email.
	FindOrCreateByEmail(ctx context.Context, email string, name *string, verified bool) (*User, error)
	SetBackendUserID(ctx context.Context, id, backendUserID string) error
	MarkEmailVerified(ctx context.Context, id string) error
}
