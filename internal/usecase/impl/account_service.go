package impl

import (
	"context"
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

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	uploader  service.AssetUploader
	logger    *slog.Logger
}

// AccountServiceParams holds dependencies for accountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Uploader  service.AssetUploader
	Logger    *slog.Logger
}

// NewAccountService is the constructor for accountService. It receives all dependencies as interfaces.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		uploader:  params.Uploader,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete registration process: field validation,
// duplicate check, asset upload and row creation. The avatar upload happens
// before the row exists, so a failed upload leaves nothing behind.
func (srv *accountService) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.TrimSpace(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(input.Password) == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("all fields are required")
	}
	if input.AvatarPath == "" {
		return nil, domainerrors.ErrAvatarRequired.WrapMessage("avatar file missing from registration")
	}

	srv.log(ctx).Info("Starting registration", slog.String("username", username))

	// Fail fast on an obvious duplicate before paying for the upload.
	// The unique indexes still catch the concurrent-registration race below.
	if err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		_, err := repoFactory.UserRepo().FindByUsernameOrEmail(ctx, username, email)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("username or email already registered")
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}

		return errors.Wrap(err, "failed to check for existing user")
	}); err != nil {
		srv.log(ctx).Warn("Registration pre-check failed", slog.String("username", username), slog.Any("error", err))

		return nil, err
	}

	avatarURL, err := srv.uploader.Upload(ctx, input.AvatarPath, "avatars")
	if err != nil {
		srv.log(ctx).Error("Avatar upload failed", slog.String("username", username), slog.Any("error", err))

		return nil, domainerrors.ErrUploadFailed.WrapMessage("failed to upload avatar")
	}

	var coverImageURL string
	if input.CoverImagePath != "" {
		coverImageURL, err = srv.uploader.Upload(ctx, input.CoverImagePath, "covers")
		if err != nil {
			srv.log(ctx).Error("Cover image upload failed", slog.String("username", username), slog.Any("error", err))

			return nil, domainerrors.ErrUploadFailed.WrapMessage("failed to upload cover image")
		}
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash password during registration")
	}

	newUser := &entity.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatarURL,
		CoverImage:   coverImageURL,
		PasswordHash: passwordHash,
	}

	if err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.UserRepo().Create(ctx, newUser)
	}); err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("username", username), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return newUser, nil
}

// ChangePassword verifies the current password and stores the new hash.
// Access tokens already in the wild stay valid until their natural expiry.
func (srv *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, input usecase.ChangePasswordInput) error {
	if strings.TrimSpace(input.OldPassword) == "" || strings.TrimSpace(input.NewPassword) == "" {
		return domainerrors.ErrValidationFailed.WrapMessage("old and new passwords are required")
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound.WrapMessage("user not found for password change")
		}

		return errors.Wrap(err, "failed to load user for password change")
	}

	if !srv.hasher.Check(input.OldPassword, user.PasswordHash) {
		srv.log(ctx).Warn("Password change rejected", slog.Any("userID", userID))

		return domainerrors.ErrInvalidCredentials.WrapMessage("old password mismatch")
	}

	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash new password")
	}

	if err := srv.userRepo.UpdateFields(ctx, userID, repository.UserPatch{PasswordHash: &newHash}); err != nil {
		return errors.Wrap(err, "failed to store new password hash")
	}

	srv.log(ctx).Info("Password changed", slog.Any("userID", userID))

	return nil
}

// UpdateProfile applies the supplied profile mutations and returns the
// refreshed public view of the account.
func (srv *accountService) UpdateProfile(ctx context.Context, userID uuid.UUID, input usecase.UpdateProfileInput) (*entity.User, error) {
	patch := repository.UserPatch{}
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return nil, domainerrors.ErrValidationFailed.WrapMessage("full name must not be blank")
		}
		patch.FullName = &fullName
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, domainerrors.ErrValidationFailed.WrapMessage("email must not be blank")
		}
		patch.Email = &email
	}
	if patch.FullName == nil && patch.Email == nil {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("no profile fields to update")
	}

	if err := srv.userRepo.UpdateFields(ctx, userID, patch); err != nil {
		srv.log(ctx).Warn("Profile update failed", slog.Any("userID", userID), slog.Any("error", err))

		return nil, err
	}

	user, err := srv.userRepo.FindPublicByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload user after profile update")
	}

	return user, nil
}

// UpdateAvatar uploads the staged avatar file and overwrites the stored URL.
func (srv *accountService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarPath string) (*entity.User, error) {
	if avatarPath == "" {
		return nil, domainerrors.ErrAvatarRequired.WrapMessage("avatar file missing from update")
	}

	avatarURL, err := srv.uploader.Upload(ctx, avatarPath, "avatars")
	if err != nil {
		srv.log(ctx).Error("Avatar upload failed", slog.Any("userID", userID), slog.Any("error", err))

		return nil, domainerrors.ErrUploadFailed.WrapMessage("failed to upload avatar")
	}

	if err := srv.userRepo.UpdateFields(ctx, userID, repository.UserPatch{Avatar: &avatarURL}); err != nil {
		return nil, errors.Wrap(err, "failed to store new avatar URL")
	}

	user, err := srv.userRepo.FindPublicByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload user after avatar update")
	}

	srv.log(ctx).Debug("Avatar updated", slog.Any("userID", userID))

	return user, nil
}
