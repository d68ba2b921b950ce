package impl

import (
	"context"
	"testing"

	"tubeid/internal/domain/entity"
	domainerrors "tubeid/internal/domain/errors"
	"tubeid/internal/domain/repository"
	mockRepo "tubeid/internal/mocks/repository"
	mockService "tubeid/internal/mocks/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssuePair_Success(t *testing.T) {
	userRepo := mockRepo.NewMockUserRepository(t)
	tokenService := mockService.NewMockTokenService(t)
	issuer := NewTokenIssuer(TokenIssuerParams{
		UserRepo:     userRepo,
		TokenService: tokenService,
		Logger:       newDiscardLogger(),
	})

	ctx := context.Background()
	userID := uuid.New()

	tokenService.EXPECT().Issue(userID, entity.TokenKindAccess).Return("access-token", nil)
	tokenService.EXPECT().Issue(userID, entity.TokenKindRefresh).Return("refresh-token", nil)
	tokenService.EXPECT().HashToken("refresh-token").Return("refresh-hash")
	userRepo.EXPECT().
		UpdateFields(ctx, userID, mock.MatchedBy(func(patch repository.UserPatch) bool {
			return patch.RefreshTokenHash != nil && *patch.RefreshTokenHash == "refresh-hash"
		})).
		Return(nil)

	pair, err := issuer.IssuePair(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, "access-token", pair.AccessToken)
	assert.Equal(t, "refresh-token", pair.RefreshToken)
}

func TestTokenIssuer_IssuePair_SigningFailure(t *testing.T) {
	userRepo := mockRepo.NewMockUserRepository(t)
	tokenService := mockService.NewMockTokenService(t)
	issuer := NewTokenIssuer(TokenIssuerParams{
		UserRepo:     userRepo,
		TokenService: tokenService,
		Logger:       newDiscardLogger(),
	})

	ctx := context.Background()
	userID := uuid.New()

	tokenService.EXPECT().Issue(userID, entity.TokenKindAccess).Return("", errors.New("signing failed"))

	pair, err := issuer.IssuePair(ctx, userID)

	require.Error(t, err)
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, domainerrors.ErrTokenIssuanceFailed)
}

func TestTokenIssuer_IssuePair_PersistenceFailureYieldsNoTokens(t *testing.T) {
	userRepo := mockRepo.NewMockUserRepository(t)
	tokenService := mockService.NewMockTokenService(t)
	issuer := NewTokenIssuer(TokenIssuerParams{
		UserRepo:     userRepo,
		TokenService: tokenService,
		Logger:       newDiscardLogger(),
	})

	ctx := context.Background()
	userID := uuid.New()

	tokenService.EXPECT().Issue(userID, entity.TokenKindAccess).Return("access-token", nil)
	tokenService.EXPECT().Issue(userID, entity.TokenKindRefresh).Return("refresh-token", nil)
	tokenService.EXPECT().HashToken("refresh-token").Return("refresh-hash")
	userRepo.EXPECT().
		UpdateFields(ctx, userID, mock.AnythingOfType("repository.UserPatch")).
		Return(errors.New("db down"))

	pair, err := issuer.IssuePair(ctx, userID)

	require.Error(t, err)
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, domainerrors.ErrTokenIssuanceFailed)
}
