// Package handler contains the HTTP handlers for the application.
package handler

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"tubeid/config"
	deliverycontext "tubeid/internal/delivery/context"
	"tubeid/internal/delivery/http/response"
	"tubeid/internal/domain/entity"
	domainerrors "tubeid/internal/domain/errors"
	"tubeid/internal/domain/service"
	"tubeid/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	accountUC usecase.AccountUsecase
	sessionUC usecase.SessionUsecase
	tokenSvc  service.TokenService
	cfg       *config.Config
	logger    *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(
	accountUC usecase.AccountUsecase,
	sessionUC usecase.SessionUsecase,
	tokenSvc service.TokenService,
	cfg *config.Config,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		accountUC: accountUC,
		sessionUC: sessionUC,
		tokenSvc:  tokenSvc,
		cfg:       cfg,
		logger:    logger,
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" form:"newPassword" validate:"required,min=6"`
}

type updateProfileRequest struct {
	FullName *string `json:"fullName" form:"fullName"`
	Email    *string `json:"email" form:"email" validate:"omitempty,email"`
}

// Register handles the multipart registration request. The avatar file is
// required, the cover image is optional; both are staged to a temp file so
// the upload to the object store reads from local disk.
func (h *UserHandler) Register(c echo.Context) error {
	input := usecase.RegisterInput{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		FullName: c.FormValue("fullName"),
		Password: c.FormValue("password"),
	}

	avatarPath, cleanupAvatar, err := stageFormFile(c, "avatar")
	if err != nil {
		return domainerrors.ErrAvatarRequired.WrapMessage("avatar file missing or unreadable")
	}
	defer cleanupAvatar()
	input.AvatarPath = avatarPath

	coverPath, cleanupCover, err := stageFormFile(c, "coverImage")
	if err == nil {
		defer cleanupCover()
		input.CoverImagePath = coverPath
	} else if !errors.Is(err, http.ErrMissingFile) {
		return domainerrors.ErrUploadFailed.WrapMessage("cover image unreadable")
	}

	user, err := h.accountUC.Register(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, user.AuthView(), "User registered successfully")
}

// Login handles the user login request and establishes the cookie session.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("login payload failed validation")
	}

	output, err := h.sessionUC.Login(c.Request().Context(), usecase.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.establishSession(c, output.Tokens)

	return response.Success(c, http.StatusOK, echo.Map{
		"user":         output.User.AuthView(),
		"accessToken":  output.Tokens.AccessToken,
		"refreshToken": output.Tokens.RefreshToken,
	}, "Login successful")
}

// Logout invalidates the stored refresh token and expires the session cookies.
func (h *UserHandler) Logout(c echo.Context) error {
	authUser, ok := deliverycontext.GetAuthUser(c)
	if !ok {
		return domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on context")
	}

	if err := h.sessionUC.Logout(c.Request().Context(), authUser.ID); err != nil {
		return errors.WithStack(err)
	}

	clearSessionCookies(c, h.cfg)

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// RefreshToken exchanges the presented refresh token for a new pair. The token
// is read from the cookie first, then from the request body.
func (h *UserHandler) RefreshToken(c echo.Context) error {
	token := ""
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		token = cookie.Value
	} else {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		return domainerrors.ErrUnauthenticated.WrapMessage("no refresh token presented")
	}

	output, err := h.sessionUC.Refresh(c.Request().Context(), token)
	if err != nil {
		return errors.WithStack(err)
	}

	h.establishSession(c, output.Tokens)

	return response.Success(c, http.StatusOK, echo.Map{
		"accessToken":  output.Tokens.AccessToken,
		"refreshToken": output.Tokens.RefreshToken,
	}, "Token refreshed successfully")
}

// ChangePassword verifies the current password and stores a new hash.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	authUser, ok := deliverycontext.GetAuthUser(c)
	if !ok {
		return domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on context")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid change password input")
	}
	if err := c.Validate(&req); err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("change password payload failed validation")
	}

	err := h.accountUC.ChangePassword(c.Request().Context(), authUser.ID, usecase.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password changed successfully")
}

// CurrentUser returns the identity attached by the session guard.
func (h *UserHandler) CurrentUser(c echo.Context) error {
	authUser, ok := deliverycontext.GetAuthUser(c)
	if !ok {
		return domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on context")
	}

	return response.Success(c, http.StatusOK, authUser, "Current user fetched successfully")
}

// UpdateProfile patches the mutable profile fields of the current user.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	authUser, ok := deliverycontext.GetAuthUser(c)
	if !ok {
		return domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on context")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("profile payload failed validation")
	}

	user, err := h.accountUC.UpdateProfile(c.Request().Context(), authUser.ID, usecase.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, user.AuthView(), "Profile updated successfully")
}

// UpdateAvatar replaces the current user's avatar with an uploaded file.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	authUser, ok := deliverycontext.GetAuthUser(c)
	if !ok {
		return domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on context")
	}

	avatarPath, cleanup, err := stageFormFile(c, "avatar")
	if err != nil {
		return domainerrors.ErrAvatarRequired.WrapMessage("avatar file missing or unreadable")
	}
	defer cleanup()

	user, err := h.accountUC.UpdateAvatar(c.Request().Context(), authUser.ID, avatarPath)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, user.AuthView(), "Avatar updated successfully")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

// establishSession writes the token cookies sized to each token's lifetime.
func (h *UserHandler) establishSession(c echo.Context, tokens *entity.TokenPair) {
	setSessionCookies(c, h.cfg, tokens,
		h.tokenSvc.TTL(entity.TokenKindAccess),
		h.tokenSvc.TTL(entity.TokenKindRefresh),
	)
}

// stageFormFile copies a multipart upload to a temp file and returns its path
// together with a cleanup func. Returns http.ErrMissingFile when the field is absent.
func stageFormFile(c echo.Context, field string) (string, func(), error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}

	return stageUpload(fileHeader)
}

func stageUpload(fileHeader *multipart.FileHeader) (string, func(), error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", nil, errors.Wrap(err, "open multipart file")
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return "", nil, errors.Wrap(err, "create staging file")
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())

		return "", nil, errors.Wrap(err, "stage multipart file")
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())

		return "", nil, errors.Wrap(err, "close staging file")
	}

	path := dst.Name()

	return path, func() { os.Remove(path) }, nil
}
