package routes

import (
	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/handlers"
	"yamdb/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokens middleware.TokenParser,
) *gin.Engine {
	api := r.Group("/api/v1")

	// ---- public
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/token", authHandler.Token)
	}

	// ---- protected
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))

	me := protected.Group("/users/me", middleware.RequireCapability(authz.CapProfile))
	{
		me.GET("", userHandler.Me)
		me.PATCH("", userHandler.PatchMe)
	}

	// USERS (admin)
	users := protected.Group("/users", middleware.RequireCapability(authz.CapManageUsers))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:username", userHandler.Get)
		users.PATCH("/:username", userHandler.Patch)
		users.DELETE("/:username", userHandler.Delete)
	}

	return r
}
