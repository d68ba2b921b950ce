package impl

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

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

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	tokenIssuer  usecase.TokenIssuer
	logger       *slog.Logger
}

// SessionServiceParams holds dependencies for sessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	TokenIssuer  usecase.TokenIssuer
	Logger       *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		tokenIssuer:  params.TokenIssuer,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login verifies credentials and mints a fresh token pair. An unknown
// identifier and a wrong password produce the same error, so responses never
// reveal which accounts exist.
func (srv *sessionService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.TrimSpace(input.Email)

	if username == "" && email == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("username or email is required")
	}
	if input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("password is required")
	}

	srv.log(ctx).Debug("Starting login", slog.String("username", username))

	user, err := srv.loadLoginUser(ctx, username, email)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("username", username), slog.Any("error", err))

		return nil, err
	}

	// Check password outside the transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("username", username), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch during login")
	}

	tokens, err := srv.tokenIssuer.IssuePair(ctx, user.ID)
	if err != nil {
		srv.log(ctx).Error("Login failed", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("User logged in", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{User: user, Tokens: tokens}, nil
}

// loadLoginUser loads the credential row from the primary in a short
// transaction to avoid stale reads on replicas.
func (srv *sessionService) loadLoginUser(ctx context.Context, username, email string) (*entity.User, error) {
	var user *entity.User

	if err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var findErr error
		user, findErr = repoFactory.UserRepo().FindByUsernameOrEmail(ctx, username, email)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return domainerrors.ErrInvalidCredentials.WrapMessage("no account matches login identifier")
			}

			return errors.Wrap(findErr, "failed to find user for login")
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return user, nil
}

// Logout clears the stored refresh token hash. Clearing an already empty
// hash is a no-op, which makes repeated logouts harmless.
func (srv *sessionService) Logout(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Logging out", slog.Any("userID", userID))

	emptyHash := ""
	if err := srv.userRepo.UpdateFields(ctx, userID, repository.UserPatch{RefreshTokenHash: &emptyHash}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// The account is gone; there is no session left to end.
			return nil
		}
		srv.log(ctx).Error("Failed to clear refresh token", slog.Any("userID", userID), slog.Any("error", err))

		return errors.Wrap(err, "failed to clear refresh token")
	}

	return nil
}

// Refresh rotates the session: the presented token must verify AND match the
// stored hash, then a brand-new pair replaces it. Concurrent refreshes race
// benignly: the last stored hash wins and at most one token keeps matching.
func (srv *sessionService) Refresh(ctx context.Context, refreshToken string) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Refreshing session")

	userID, err := srv.tokenService.Verify(refreshToken, entity.TokenKindRefresh)
	if err != nil {
		srv.log(ctx).Warn("Refresh token rejected", slog.Any("error", err))

		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token failed verification")
	}

	user, err := srv.loadRefreshUser(ctx, userID, refreshToken)
	if err != nil {
		return nil, err
	}

	tokens, err := srv.tokenIssuer.IssuePair(ctx, user.ID)
	if err != nil {
		srv.log(ctx).Error("Refresh failed", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Session refreshed", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{User: user, Tokens: tokens}, nil
}

// loadRefreshUser loads the user from the primary and checks the presented
// token against the stored hash inside one short transaction.
func (srv *sessionService) loadRefreshUser(ctx context.Context, userID uuid.UUID, refreshToken string) (*entity.User, error) {
	var user *entity.User

	if err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var findErr error
		user, findErr = repoFactory.UserRepo().FindByID(ctx, userID)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token subject no longer exists")
			}

			return errors.Wrap(findErr, "failed to find user for refresh")
		}

		presentedHash := srv.tokenService.HashToken(refreshToken)
		if user.RefreshTokenHash == "" ||
			subtle.ConstantTimeCompare([]byte(presentedHash), []byte(user.RefreshTokenHash)) != 1 {
			srv.log(ctx).Warn("Refresh token does not match stored session", slog.Any("userID", userID))

			return domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token is expired or used")
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return user, nil
}
