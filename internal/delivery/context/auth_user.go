package context

import (
	"tubeid/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// KeyAuthUser is the key for storing the authenticated user in echo.Context.
const KeyAuthUser ContextKey = "auth_user"

// SetAuthUser attaches the verified identity to the request.
func SetAuthUser(c echo.Context, user *entity.AuthUser) {
	c.Set(string(KeyAuthUser), user)
}

// GetAuthUser extracts the verified identity set by the auth middleware.
func GetAuthUser(c echo.Context) (*entity.AuthUser, bool) {
	user, ok := c.Get(string(KeyAuthUser)).(*entity.AuthUser)

	return user, ok
}
