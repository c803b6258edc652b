package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func newRouter(clients *ServiceClients, verifier middleware.Verifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "API Gateway is healthy", clients.GetServiceStatus(c.Request.Context()))
	})

	requireToken := middleware.RequireValidToken(verifier)

	// Authentication routes
	auth := router.Group("/auth")
	{
		auth.POST("/login", clients.AuthService.ProxyRequest)
		auth.POST("/register", clients.AuthService.ProxyRequest)
		auth.POST("/refresh", clients.AuthService.ProxyRequest)
		auth.GET("/verify", requireToken, clients.AuthService.ProxyRequest)
		auth.POST("/logout", requireToken, clients.AuthService.ProxyRequest)
		auth.GET("/profile", requireToken, clients.AuthService.ProxyRequest)
		auth.PUT("/profile", requireToken, clients.AuthService.ProxyRequest)
	}

	// User management routes, the auth service checks the admin role
	router.Any("/users", requireToken, clients.AuthService.ProxyRequest)
	router.Any("/users/*path", requireToken, clients.AuthService.ProxyRequest)

	router.Any("/api/*path", requireToken, clients.RentalService.ProxyRequest)
	router.Any("/dashboard/*path", requireToken, clients.DashboardService.ProxyRequest)

	// Activity pipeline observability
	activity := router.Group("/activity")
	{
		activity.GET("/health", clients.ActivityService.ProxyRequest)
		activity.GET("/stats", requireToken, clients.ActivityService.ProxyRequest)
	}

	return router
}
