package usecase

import (
	"context"

	"tubeid/internal/domain/entity"

	"github.com/google/uuid"
)

// TokenIssuer mints a full session token pair and persists the refresh
// token's hash as the user's single valid session.
type TokenIssuer interface {
	IssuePair(ctx context.Context, userID uuid.UUID) (*entity.TokenPair, error)
}
