package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "tubeid/internal/delivery/context"
	"tubeid/internal/domain/entity"
	domainerrors "tubeid/internal/domain/errors"
	"tubeid/internal/domain/repository"
	"tubeid/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// AccessTokenCookie is the cookie carrying the access token; browsers use it,
// API clients fall back to the Authorization header.
const AccessTokenCookie = "accessToken"

// AuthMiddleware validates the access token and resolves the request identity.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, userRepo repository.UserRepository, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, userRepo: userRepo, logger: logger}
}

// Authenticate verifies the access token and attaches the sanitized identity
// to the context. Every failure mode after token extraction maps to the same
// 401 so responses never reveal whether a given account exists.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			return domainerrors.ErrUnauthenticated.WrapMessage("no access token presented")
		}

		userID, err := m.tokenSvc.Verify(tokenString, entity.TokenKindAccess)
		if err != nil {
			// The reason (expired vs malformed) stays server-side.
			m.log(c).Debug("Access token rejected", slog.Any("error", err))

			return domainerrors.ErrInvalidAccessToken.WrapMessage("access token failed verification")
		}

		// Public projection only: credential columns never enter the request scope.
		user, err := m.userRepo.FindPublicByID(c.Request().Context(), userID)
		if err != nil {
			m.log(c).Debug("Access token subject not resolvable", slog.Any("userID", userID), slog.Any("error", err))

			return domainerrors.ErrInvalidAccessToken.WrapMessage("access token subject not found")
		}

		deliverycontext.SetAuthUser(c, user.AuthView())

		return next(c)
	}
}

// extractAccessToken prefers the session cookie and falls back to a Bearer header.
func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return strings.TrimSpace(token)
	}

	return ""
}

func (m *AuthMiddleware) log(c echo.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)
}
