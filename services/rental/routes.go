package main

import (
	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

func newRouter(svc *rentalService, am *middleware.AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := svc.store.Ping(c.Request.Context()); err != nil {
			utils.ServiceUnavailableResponse(c, "Database unavailable")
			return
		}
		utils.OKResponse(c, "Rental service is healthy", gin.H{
			"store_breaker": svc.loader.Breaker().GetState(),
		})
	})

	api := router.Group("/api")
	api.Use(am.RequireAuth())
	{
		for _, col := range collections {
			group := api.Group("/" + col.path)
			group.GET("", handleList(svc, col))
			group.GET("/:id", handleGet(svc, col))
		}

		api.POST("/users", am.RequireRole(models.RoleAdmin), handleCreateUser(svc))
		api.PATCH("/users/:id", handleUpdateUser(svc))
		api.GET("/landlords/:id/properties", handleLandlordProperties(svc))
		api.GET("/tenants/:id/leases", handleTenantLeases(svc))
		api.GET("/users/:id/messages", handleUserMessages(svc))

		api.POST("/properties", handleCreateProperty(svc))
		api.PATCH("/properties/:id", handleUpdateProperty(svc))

		api.POST("/units", handleCreateUnit(svc))
		api.PATCH("/units/:id", handleUpdateUnit(svc))

		api.POST("/applications", handleCreateApplication(svc))
		api.PATCH("/applications/:id", handleUpdateApplication(svc))

		api.POST("/leases", handleCreateLease(svc))
		api.PATCH("/leases/:id", handleUpdateLease(svc))

		api.POST("/payments", handleCreatePayment(svc))
		api.PATCH("/payments/:id", handleUpdatePayment(svc))

		api.POST("/maintenance", handleCreateMaintenance(svc))
		api.PATCH("/maintenance/:id", handleUpdateMaintenance(svc))
		api.POST("/maintenance/:id/comments", handleAddComment(svc))

		api.POST("/messages", handleCreateMessage(svc))
		api.PATCH("/messages/:id", handleUpdateMessage(svc))
		api.POST("/messages/:id/read", handleMarkRead(svc))

		api.GET("/activities", handleGetActivities(svc))
	}

	return router
}
