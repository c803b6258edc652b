package main

import (
	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

func newRouter(svc *dashboardService, am *middleware.AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Dashboard service is healthy", gin.H{
			"sessions":      svc.sessions.Len(),
			"store_breaker": svc.loader.Breaker().GetState(),
		})
	})

	dash := router.Group("/dashboard")
	dash.Use(am.RequireAuth())
	{
		dash.GET("/stats", handleStats(svc))
		dash.GET("/views/:kind", handleView(svc))
		dash.GET("/reports/payments.xlsx", am.RequireRole(models.RoleAdmin, models.RoleLandlord), handlePaymentReport(svc))
		dash.DELETE("/session", handleEndSession(svc))
	}

	return router
}
