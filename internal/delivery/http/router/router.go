// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"tubeid/internal/delivery/http/middleware"
	"tubeid/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	userGroup := e.Group("/users")
	{
		// Public session endpoints
		userGroup.POST("/register", r.userHandler.Register)
		userGroup.POST("/login", r.userHandler.Login)
		userGroup.POST("/refresh-token", r.userHandler.RefreshToken)
	}

	// Everything below requires a valid access token
	guarded := userGroup.Group("", r.authMiddleware.Authenticate)
	{
		guarded.POST("/logout", r.userHandler.Logout)
		guarded.POST("/change-password", r.userHandler.ChangePassword)
		guarded.GET("/me", r.userHandler.CurrentUser)
		guarded.PATCH("/update-profile", r.userHandler.UpdateProfile)
		guarded.PATCH("/update-avatar", r.userHandler.UpdateAvatar)
	}
}
