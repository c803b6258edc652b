package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-rental-management/shared/utils"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(rc *RetryConsumer, db pinger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			utils.ServiceUnavailableResponse(c, "Activity store unreachable")
			return
		}
		utils.OKResponse(c, "Activity service is healthy", gin.H{
			"service": "activity",
		})
	})

	router.GET("/stats", func(c *gin.Context) {
		stats, err := rc.GetRetryStats(c.Request.Context())
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to load retry stats")
			return
		}
		utils.OKResponse(c, "Retry stats", stats)
	})

	return router
}
