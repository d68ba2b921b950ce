// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"tubeid/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateUser is returned when a unique constraint on username or email is violated.
var ErrDuplicateUser = errors.New("username or email already taken")

// UserPatch describes a narrow column update. Nil fields are left untouched.
// Patches bypass full-record validation so credential fields can be rewritten
// without re-validating the whole row.
type UserPatch struct {
	FullName         *string
	Email            *string
	Avatar           *string
	CoverImage       *string
	PasswordHash     *string
	RefreshTokenHash *string
}

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID, credentials included.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindPublicByID retrieves a user by ID without loading the credential
	// columns (password hash, refresh token hash).
	FindPublicByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByUsernameOrEmail retrieves a user matching either identifier.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// UpdateFields applies a narrow column patch to the user row.
	UpdateFields(ctx context.Context, id uuid.UUID, patch UserPatch) error
}
