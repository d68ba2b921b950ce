package usecase

import (
	"context"

	"tubeid/internal/domain/entity"

	"github.com/google/uuid"
)

// LoginInput defines the data required to log in. Either Username or Email
// must be present; both identify the same account when supplied together.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	User   *entity.User
	Tokens *entity.TokenPair
}

// SessionUsecase defines the interface for session-related business operations.
type SessionUsecase interface {
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)

	// Logout clears the stored refresh token for the user. It is idempotent:
	// logging out an already logged-out user succeeds.
	Logout(ctx context.Context, userID uuid.UUID) error

	// Refresh exchanges a valid refresh token for a new pair, rotating the
	// stored token so the presented one can never be used again.
	Refresh(ctx context.Context, refreshToken string) (*LoginOutput, error)
}
