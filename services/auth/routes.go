package main

import (
	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

func newRouter(svc *authService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Auth service is healthy", nil)
	})

	am := svc.auth
	auth := router.Group("/auth")
	{
		auth.POST("/login", handleLogin(svc))
		auth.POST("/register", handleRegister(svc))
		auth.POST("/refresh", handleRefreshToken(svc))
		auth.GET("/verify", am.RequireAuth(), handleVerifyToken())
		auth.POST("/logout", am.RequireAuth(), handleLogout(svc))
		auth.GET("/profile", am.RequireAuth(), handleGetProfile(svc))
		auth.PUT("/profile", am.RequireAuth(), handleUpdateProfile(svc))
	}

	// User management routes (admin only)
	users := router.Group("/users")
	users.Use(am.RequireAuth(), am.RequireRole(models.RoleAdmin))
	{
		users.GET("", handleGetUsers(svc))
		users.GET("/:id", handleGetUser(svc))
		users.PUT("/:id/status", handleSetUserStatus(svc))
		users.POST("/:id/confirm", handleConfirmEmail(svc))
	}

	return router
}
