// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "tubeid/internal/delivery/context"
	"tubeid/internal/domain/entity"
	domainerrors "tubeid/internal/domain/errors"
	"tubeid/internal/domain/repository"
	"tubeid/internal/domain/service"
	"tubeid/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// tokenIssuer mints access/refresh pairs and records the refresh token's
// hash as the user's single valid session. Persisting a new hash overwrites
// the previous one, so older refresh tokens die the moment a new pair exists.
type tokenIssuer struct {
	userRepo     repository.UserRepository
	tokenService service.TokenService
	logger       *slog.Logger
}

// TokenIssuerParams holds dependencies for tokenIssuer, injected by Fx.
type TokenIssuerParams struct {
	fx.In

	UserRepo     repository.UserRepository
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewTokenIssuer is the constructor for tokenIssuer.
func NewTokenIssuer(params TokenIssuerParams) usecase.TokenIssuer {
	return &tokenIssuer{
		userRepo:     params.UserRepo,
		tokenService: params.TokenService,
		logger:       params.Logger,
	}
}

func (srv *tokenIssuer) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// IssuePair mints both tokens and persists the refresh token's hash.
// The pair is only returned once the hash is durably stored; a persistence
// failure yields no tokens at all.
func (srv *tokenIssuer) IssuePair(ctx context.Context, userID uuid.UUID) (*entity.TokenPair, error) {
	accessToken, err := srv.tokenService.Issue(userID, entity.TokenKindAccess)
	if err != nil {
		srv.log(ctx).Error("Failed to sign access token", slog.Any("userID", userID), slog.Any("error", err))

		return nil, domainerrors.ErrTokenIssuanceFailed.WrapMessage("failed to sign access token")
	}

	refreshToken, err := srv.tokenService.Issue(userID, entity.TokenKindRefresh)
	if err != nil {
		srv.log(ctx).Error("Failed to sign refresh token", slog.Any("userID", userID), slog.Any("error", err))

		return nil, domainerrors.ErrTokenIssuanceFailed.WrapMessage("failed to sign refresh token")
	}

	refreshTokenHash := srv.tokenService.HashToken(refreshToken)
	if err := srv.userRepo.UpdateFields(ctx, userID, repository.UserPatch{
		RefreshTokenHash: &refreshTokenHash,
	}); err != nil {
		srv.log(ctx).Error("Failed to persist refresh token hash", slog.Any("userID", userID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrTokenIssuanceFailed, "failed to persist refresh token hash")
	}

	return &entity.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
