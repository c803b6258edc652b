package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/middleware"
)

type gatewayConfig struct {
	Port     string `env:"API_GATEWAY_PORT" envDefault:"8080"`
	Auth     config.AuthConfig
	Services config.ServiceURLs
}

func main() {
	config.Bootstrap("gateway")
	gin.SetMode(gin.ReleaseMode)

	var cfg gatewayConfig
	if err := config.Parse(&cfg); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if cfg.Auth.SigningKey == "" && cfg.Auth.UserPoolID == "" {
		log.Fatal("JWT_SIGNING_KEY or COGNITO_USER_POOL_ID must be set")
	}

	// Initialize service clients
	clients := &ServiceClients{
		AuthService:      NewServiceClient("auth", cfg.Services.Auth, ""),
		RentalService:    NewServiceClient("rental", cfg.Services.Rental, ""),
		DashboardService: NewServiceClient("dashboard", cfg.Services.Dashboard, ""),
		ActivityService:  NewServiceClient("activity", cfg.Services.Activity, "/activity"),
	}

	router := newRouter(clients, middleware.NewVerifier(cfg.Auth))

	logrus.Infof("API Gateway starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start API Gateway:", err)
	}
}
