package handler

import (
	"net/http"
	"time"

	"tubeid/config"
	"tubeid/internal/delivery/http/middleware"
	"tubeid/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// RefreshTokenCookie carries the refresh token; scoped like the access
// cookie but only read by the refresh endpoint.
const RefreshTokenCookie = "refreshToken"

func newSessionCookie(cfg *config.Config, name, value string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
	}
	if cfg.Cookie != nil {
		cookie.Domain = cfg.Cookie.Domain
		cookie.Secure = cfg.Cookie.Secure
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge / time.Second)
	}

	return cookie
}

// setSessionCookies writes both token cookies, each living as long as its token.
func setSessionCookies(c echo.Context, cfg *config.Config, tokens *entity.TokenPair, accessTTL, refreshTTL time.Duration) {
	c.SetCookie(newSessionCookie(cfg, middleware.AccessTokenCookie, tokens.AccessToken, accessTTL))
	c.SetCookie(newSessionCookie(cfg, RefreshTokenCookie, tokens.RefreshToken, refreshTTL))
}

// clearSessionCookies expires both token cookies immediately.
func clearSessionCookies(c echo.Context, cfg *config.Config) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cookie := newSessionCookie(cfg, name, "", 0)
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
}
