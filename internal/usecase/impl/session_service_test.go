package impl

import (
	"context"
	"testing"

	"tubeid/internal/domain/entity"
	domainerrors "tubeid/internal/domain/errors"
	"tubeid/internal/domain/repository"
	mockRepo "tubeid/internal/mocks/repository"
	mockService "tubeid/internal/mocks/service"
	mockUsecase "tubeid/internal/mocks/usecase"
	"tubeid/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionServiceMocks struct {
	txManager    *mockRepo.MockTransactionManager
	userRepo     *mockRepo.MockUserRepository
	hasher       *mockService.MockPasswordHasher
	tokenService *mockService.MockTokenService
	tokenIssuer  *mockUsecase.MockTokenIssuer
}

func newSessionServiceWithMocks(t *testing.T) (usecase.SessionUsecase, *sessionServiceMocks) {
	t.Helper()

	m := &sessionServiceMocks{
		txManager:    mockRepo.NewMockTransactionManager(t),
		userRepo:     mockRepo.NewMockUserRepository(t),
		hasher:       mockService.NewMockPasswordHasher(t),
		tokenService: mockService.NewMockTokenService(t),
		tokenIssuer:  mockUsecase.NewMockTokenIssuer(t),
	}

	svc := NewSessionService(SessionServiceParams{
		TxManager:    m.txManager,
		UserRepo:     m.userRepo,
		Hasher:       m.hasher,
		TokenService: m.tokenService,
		TokenIssuer:  m.tokenIssuer,
		Logger:       newDiscardLogger(),
	})

	return svc, m
}

// expectLoginLookup wires the transactional lookup to return the given result.
func (m *sessionServiceMocks) expectLoginLookup(t *testing.T, ctx context.Context, username, email string, user *entity.User, findErr error) {
	t.Helper()

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByUsernameOrEmail(ctx, username, email).Return(user, findErr)

			return fn(mockFactory)
		})
}

func TestSessionService_Login_Success(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, Username: "alice", PasswordHash: "stored-hash"}
	tokens := &entity.TokenPair{AccessToken: "access", RefreshToken: "refresh"}

	m.expectLoginLookup(t, ctx, "alice", "", user, nil)
	m.hasher.EXPECT().Check("secret", "stored-hash").Return(true)
	m.tokenIssuer.EXPECT().IssuePair(ctx, userID).Return(tokens, nil)

	output, err := service.Login(ctx, usecase.LoginInput{Username: "alice", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, user, output.User)
	assert.Equal(t, tokens, output.Tokens)
}

func TestSessionService_Login_NormalizesUsername(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, Username: "alice", PasswordHash: "stored-hash"}
	tokens := &entity.TokenPair{AccessToken: "access", RefreshToken: "refresh"}

	// Lookup must see the trimmed, lowercased identifier.
	m.expectLoginLookup(t, ctx, "alice", "", user, nil)
	m.hasher.EXPECT().Check("secret", "stored-hash").Return(true)
	m.tokenIssuer.EXPECT().IssuePair(ctx, userID).Return(tokens, nil)

	_, err := service.Login(ctx, usecase.LoginInput{Username: "  Alice ", Password: "secret"})

	require.NoError(t, err)
}

func TestSessionService_Login_MissingIdentifier(t *testing.T) {
	service, _ := newSessionServiceWithMocks(t)

	_, err := service.Login(context.Background(), usecase.LoginInput{Password: "secret"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestSessionService_Login_MissingPassword(t *testing.T) {
	service, _ := newSessionServiceWithMocks(t)

	_, err := service.Login(context.Background(), usecase.LoginInput{Username: "alice"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestSessionService_Login_UnknownIdentifier(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	m.expectLoginLookup(t, ctx, "ghost", "", nil, repository.ErrUserNotFound)

	output, err := service.Login(ctx, usecase.LoginInput{Username: "ghost", Password: "secret"})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestSessionService_Login_WrongPassword(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	user := &entity.User{ID: uuid.New(), Username: "alice", PasswordHash: "stored-hash"}

	m.expectLoginLookup(t, ctx, "alice", "", user, nil)
	m.hasher.EXPECT().Check("wrong", "stored-hash").Return(false)

	output, err := service.Login(ctx, usecase.LoginInput{Username: "alice", Password: "wrong"})

	require.Error(t, err)
	assert.Nil(t, output)
	// Same error as an unknown identifier: the response must not reveal
	// whether the account exists.
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestSessionService_Logout_ClearsStoredHash(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()

	m.userRepo.EXPECT().
		UpdateFields(ctx, userID, mock.MatchedBy(func(patch repository.UserPatch) bool {
			return patch.RefreshTokenHash != nil && *patch.RefreshTokenHash == ""
		})).
		Return(nil)

	err := service.Logout(ctx, userID)

	require.NoError(t, err)
}

func TestSessionService_Logout_UserGoneIsIdempotent(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()

	m.userRepo.EXPECT().
		UpdateFields(ctx, userID, mock.AnythingOfType("repository.UserPatch")).
		Return(repository.ErrUserNotFound)

	err := service.Logout(ctx, userID)

	require.NoError(t, err)
}

// expectRefreshLookup wires the transactional load of the refresh subject.
func (m *sessionServiceMocks) expectRefreshLookup(t *testing.T, ctx context.Context, userID uuid.UUID, user *entity.User, findErr error) {
	t.Helper()

	m.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockUserRepo := mockRepo.NewMockUserRepository(t)

			mockFactory.EXPECT().UserRepo().Return(mockUserRepo)
			mockUserRepo.EXPECT().FindByID(ctx, userID).Return(user, findErr)

			return fn(mockFactory)
		})
}

func TestSessionService_Refresh_RotatesSession(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, Username: "alice", RefreshTokenHash: "current-hash"}
	newTokens := &entity.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}

	m.tokenService.EXPECT().Verify("current-refresh", entity.TokenKindRefresh).Return(userID, nil)
	m.expectRefreshLookup(t, ctx, userID, user, nil)
	m.tokenService.EXPECT().HashToken("current-refresh").Return("current-hash")
	m.tokenIssuer.EXPECT().IssuePair(ctx, userID).Return(newTokens, nil)

	output, err := service.Refresh(ctx, "current-refresh")

	require.NoError(t, err)
	assert.Equal(t, user, output.User)
	assert.Equal(t, newTokens, output.Tokens)
}

func TestSessionService_Refresh_VerificationFailure(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()

	m.tokenService.EXPECT().Verify("garbage", entity.TokenKindRefresh).Return(uuid.Nil, assert.AnError)

	output, err := service.Refresh(ctx, "garbage")

	require.Error(t, err)
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestSessionService_Refresh_RotatedTokenRejected(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	// The stored hash belongs to a newer token; the presented one was rotated out.
	user := &entity.User{ID: userID, RefreshTokenHash: "newer-hash"}

	m.tokenService.EXPECT().Verify("old-refresh", entity.TokenKindRefresh).Return(userID, nil)
	m.expectRefreshLookup(t, ctx, userID, user, nil)
	m.tokenService.EXPECT().HashToken("old-refresh").Return("old-hash")

	output, err := service.Refresh(ctx, "old-refresh")

	require.Error(t, err)
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestSessionService_Refresh_AfterLogoutRejected(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()
	user := &entity.User{ID: userID, RefreshTokenHash: ""}

	m.tokenService.EXPECT().Verify("stale-refresh", entity.TokenKindRefresh).Return(userID, nil)
	m.expectRefreshLookup(t, ctx, userID, user, nil)
	m.tokenService.EXPECT().HashToken("stale-refresh").Return("stale-hash")

	output, err := service.Refresh(ctx, "stale-refresh")

	require.Error(t, err)
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestSessionService_Refresh_SubjectMissing(t *testing.T) {
	service, m := newSessionServiceWithMocks(t)

	ctx := context.Background()
	userID := uuid.New()

	m.tokenService.EXPECT().Verify("orphan-refresh", entity.TokenKindRefresh).Return(userID, nil)
	m.expectRefreshLookup(t, ctx, userID, nil, repository.ErrUserNotFound)

	output, err := service.Refresh(ctx, "orphan-refresh")

	require.Error(t, err)
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}
