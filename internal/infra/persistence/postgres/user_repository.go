// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"tubeid/internal/domain/entity"
	domainerrors "tubeid/internal/domain/errors"
	"tubeid/internal/domain/repository"
	"tubeid/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// publicColumns is the projection used wherever credential material must not
// leave the database layer.
var publicColumns = []string{
	"id", "username", "email", "full_name", "avatar", "cover_image", "created_at", "updated_at",
}

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID, credentials included.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&userM).Error
	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// FindPublicByID retrieves a user by ID without loading the credential columns.
func (repo *userRepository) FindPublicByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Select(publicColumns).
		Where("id = ?", id).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByUsernameOrEmail retrieves a single user matching either identifier.
// Usernames are stored lowercase, so the caller normalizes before lookup.
func (repo *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by username or email")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	// Map the pure domain entity to a GORM persistence model.
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("username or email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated ID and timestamps
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// UpdateFields applies a narrow column patch to the user row.
// UpdateColumns skips GORM hooks and full-record validation, so credential
// fields can be rewritten without touching the rest of the row.
func (repo *userRepository) UpdateFields(ctx context.Context, id uuid.UUID, patch repository.UserPatch) error {
	columns := patchColumns(patch)
	if len(columns) == 0 {
		return nil
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		UpdateColumns(columns)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

func patchColumns(patch repository.UserPatch) map[string]any {
	columns := make(map[string]any)
	if patch.FullName != nil {
		columns["full_name"] = *patch.FullName
	}
	if patch.Email != nil {
		columns["email"] = *patch.Email
	}
	if patch.Avatar != nil {
		columns["avatar"] = *patch.Avatar
	}
	if patch.CoverImage != nil {
		columns["cover_image"] = *patch.CoverImage
	}
	if patch.PasswordHash != nil {
		columns["password_hash"] = *patch.PasswordHash
	}
	if patch.RefreshTokenHash != nil {
		// An empty hash clears the column, ending the stored session.
		if *patch.RefreshTokenHash == "" {
			columns["refresh_token_hash"] = nil
		} else {
			columns["refresh_token_hash"] = *patch.RefreshTokenHash
		}
	}

	return columns
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	var refreshTokenHash string
	if data.RefreshTokenHash != nil {
		refreshTokenHash = *data.RefreshTokenHash
	}

	return &entity.User{
		ID:               data.ID,
		Username:         data.Username,
		Email:            data.Email,
		FullName:         data.FullName,
		Avatar:           data.Avatar,
		CoverImage:       data.CoverImage,
		PasswordHash:     data.PasswordHash,
		RefreshTokenHash: refreshTokenHash,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	var refreshTokenHash *string
	if data.RefreshTokenHash != "" {
		hash := data.RefreshTokenHash
		refreshTokenHash = &hash
	}

	return &model.UserModel{
		ID:               data.ID,
		Username:         data.Username,
		Email:            data.Email,
		FullName:         data.FullName,
		Avatar:           data.Avatar,
		CoverImage:       data.CoverImage,
		PasswordHash:     data.PasswordHash,
		RefreshTokenHash: refreshTokenHash,
	}
}
