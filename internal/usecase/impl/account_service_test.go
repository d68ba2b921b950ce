package impl

import (
	"context"
	"testing"

	"tubeid/internal/domain/entity"
	domainerrors "tubeid/internal/domain/errors"
	"tubeid/internal/domain/repository"
	mockRepo "tubeid/internal/mocks/repository"
	mockService "tubeid/internal/mocks/service"
	"tubeid/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type accountServiceMocks struct {
	txManager *mockRepo.MockTransactionManager
	userRepo  *mockRepo.MockUserRepository
	hasher    *mockService.MockPasswordHasher
	uploader  *mockService.MockAssetUploader
}

func newAccountServiceWithMocks(t *testing.T) (usecase.AccountUsecase, *accountServiceMocks) {
	t.Helper()

	m := &accountServiceMocks{
		txManager: mockRepo.NewMockTransactionManager(t),
		userRepo:  mockRepo.NewMockUserRepository(t),
		hasher:    mockService.NewMockPasswordHasher(t),
		uploader:  mockService.NewMockAssetUploader(t),
	}

	svc := NewAccountService(AccountServiceParams{
		TxManager: m.txManager,
		UserRepo:  m.userRepo,
		Hasher:    m.hasher,
		Uploader:  m.uploader,
		Logger:    newDiscardLogger(),
	})

	return svc, m
}

// expectDuplicateCheck wires the pre-upload duplicate lookup.
func (m *accountServiceMocks) expectDuplicateCheck(t *testing.T, ctx context.Context, username, email string, existing *entity.User, findErr error) {
	t.Helper()

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByUsernameOrEmail(ctx, username, email).Return(existing, findErr)

			return fn(mockFactory)
		}).
		Once()
}

func validRegisterInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Username:   "alice",
		Email:      "alice@example.com",
		FullName:   "Alice Example",
		Password:   "secret",
		AvatarPath: "/tmp/avatar.png",
	}
}

func TestAccountService_Register_Success(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()
	input := validRegisterInput()
	input.CoverImagePath = "/tmp/cover.png"
	newID := uuid.New()

	m.expectDuplicateCheck(t, ctx, "alice", "alice@example.com", nil, repository.ErrUserNotFound)
	m.uploader.EXPECT().Upload(ctx, "/tmp/avatar.png", "avatars").Return("https://cdn.example.com/avatars/a.png", nil)
	m.uploader.EXPECT().Upload(ctx, "/tmp/cover.png", "covers").Return("https://cdn.example.com/covers/c.png", nil)
	m.hasher.EXPECT().Hash("secret").Return("password-hash", nil)
	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().
				Create(ctx, mock.AnythingOfType("*entity.User")).
				RunAndReturn(func(ctx context.Context, user *entity.User) error {
					user.ID = newID

					return nil
				})

			return fn(mockFactory)
		}).
		Once()

	user, err := service.Register(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, newID, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "https://cdn.example.com/avatars/a.png", user.Avatar)
	assert.Equal(t, "https://cdn.example.com/covers/c.png", user.CoverImage)
	assert.Equal(t, "password-hash", user.PasswordHash)
}

func TestAccountService_Register_NormalizesUsername(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()
	input := validRegisterInput()
	input.Username = "  Alice "

	// The duplicate check and the stored row both use the lowercased handle.
	m.expectDuplicateCheck(t, ctx, "alice", "alice@example.com", nil, repository.ErrUserNotFound)
	m.uploader.EXPECT().Upload(ctx, "/tmp/avatar.png", "avatars").Return("https://cdn.example.com/avatars/a.png", nil)
	m.hasher.EXPECT().Hash("secret").Return("password-hash", nil)
	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().
				Create(ctx, mock.MatchedBy(func(user *entity.User) bool {
					return user.Username == "alice"
				})).
				Return(nil)

			return fn(mockFactory)
		}).
		Once()

	_, err := service.Register(ctx, input)

	require.NoError(t, err)
}

func TestAccountService_Register_MissingFields(t *testing.T) {
	service, _ := newAccountServiceWithMocks(t)

	input := validRegisterInput()
	input.Email = ""

	user, err := service.Register(context.Background(), input)

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestAccountService_Register_AvatarRequired(t *testing.T) {
	service, _ := newAccountServiceWithMocks(t)

	input := validRegisterInput()
	input.AvatarPath = ""

	user, err := service.Register(context.Background(), input)

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrAvatarRequired)
}

func TestAccountService_Register_DuplicateFailsBeforeUpload(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()
	existing := &entity.User{ID: uuid.New(), Username: "alice"}

	// No upload expectations: a duplicate must fail before any storage work.
	m.expectDuplicateCheck(t, ctx, "alice", "alice@example.com", existing, nil)

	user, err := service.Register(ctx, validRegisterInput())

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
}

func TestAccountService_Register_UploadFailure(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()

	m.expectDuplicateCheck(t, ctx, "alice", "alice@example.com", nil, repository.ErrUserNotFound)
	m.uploader.EXPECT().Upload(ctx, "/tmp/avatar.png", "avatars").Return("", assert.AnError)

	user, err := service.Register(ctx, validRegisterInput())

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrUploadFailed)
}

func TestAccountService_ChangePassword_Success(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, PasswordHash: "old-hash"}

	m.userRepo.EXPECT().FindByID(ctx, userID).Return(user, nil)
	m.hasher.EXPECT().Check("old-secret", "old-hash").Return(true)
	m.hasher.EXPECT().Hash("new-secret").Return("new-hash", nil)
	m.userRepo.EXPECT().
		UpdateFields(ctx, userID, mock.MatchedBy(func(patch repository.UserPatch) bool {
			return patch.PasswordHash != nil && *patch.PasswordHash == "new-hash"
		})).
		Return(nil)

	err := service.ChangePassword(ctx, userID, usecase.ChangePasswordInput{
		OldPassword: "old-secret",
		NewPassword: "new-secret",
	})

	require.NoError(t, err)
}

func TestAccountService_ChangePassword_WrongOldPassword(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, PasswordHash: "old-hash"}

	m.userRepo.EXPECT().FindByID(ctx, userID).Return(user, nil)
	m.hasher.EXPECT().Check("wrong", "old-hash").Return(false)

	err := service.ChangePassword(ctx, userID, usecase.ChangePasswordInput{
		OldPassword: "wrong",
		NewPassword: "new-secret",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAccountService_UpdateProfile_Success(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	fullName := "Alice Updated"
	updated := &entity.User{ID: userID, FullName: fullName}

	m.userRepo.EXPECT().
		UpdateFields(ctx, userID, mock.MatchedBy(func(patch repository.UserPatch) bool {
			return patch.FullName != nil && *patch.FullName == fullName && patch.Email == nil
		})).
		Return(nil)
	m.userRepo.EXPECT().FindPublicByID(ctx, userID).Return(updated, nil)

	user, err := service.UpdateProfile(ctx, userID, usecase.UpdateProfileInput{FullName: &fullName})

	require.NoError(t, err)
	assert.Equal(t, updated, user)
}

func TestAccountService_UpdateProfile_NoFields(t *testing.T) {
	service, _ := newAccountServiceWithMocks(t)

	user, err := service.UpdateProfile(context.Background(), uuid.New(), usecase.UpdateProfileInput{})

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestAccountService_UpdateProfile_BlankFieldRejected(t *testing.T) {
	service, _ := newAccountServiceWithMocks(t)

	blank := "   "

	user, err := service.UpdateProfile(context.Background(), uuid.New(), usecase.UpdateProfileInput{FullName: &blank})

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestAccountService_UpdateAvatar_Success(t *testing.T) {
	service, m := newAccountServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	updated := &entity.User{ID: userID, Avatar: "https://cdn.example.com/avatars/new.png"}

	m.uploader.EXPECT().Upload(ctx, "/tmp/new-avatar.png", "avatars").Return("https://cdn.example.com/avatars/new.png", nil)
	m.userRepo.EXPECT().
		UpdateFields(ctx, userID, mock.MatchedBy(func(patch repository.UserPatch) bool {
			return patch.Avatar != nil && *patch.Avatar == "https://cdn.example.com/avatars/new.png"
		})).
		Return(nil)
	m.userRepo.EXPECT().FindPublicByID(ctx, userID).Return(updated, nil)

	user, err := service.UpdateAvatar(ctx, userID, "/tmp/new-avatar.png")

	require.NoError(t, err)
	assert.Equal(t, updated, user)
}
