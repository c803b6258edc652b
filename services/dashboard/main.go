package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/cache"
	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/store"
)

type serviceConfig struct {
	Port   string `env:"DASHBOARD_SERVICE_PORT" envDefault:"8003"`
	Auth   config.AuthConfig
	Redis  config.RedisConfig
	Loader config.LoaderConfig
}

func main() {
	config.Bootstrap("dashboard")
	gin.SetMode(gin.ReleaseMode)

	var cfg serviceConfig
	if err := config.Parse(&cfg); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	st := store.New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	kv, closeKV := cache.Open(ctx, cfg.Redis)
	cancel()
	defer closeKV()

	authMiddleware := middleware.NewAuthMiddleware(
		middleware.NewVerifier(cfg.Auth),
		st.Users,
		middleware.WithActorCache(cache.NewActorCache(kv, cfg.Redis.ClaimsTTL)),
		middleware.WithSessions(cache.NewSessionStore(kv, cfg.Redis.SessionTTL)),
	)

	ld := loader.New(loader.FromStore(st), cfg.Loader)
	svc := &dashboardService{
		loader:   ld,
		sessions: loader.NewRegistry(ld),
		now:      time.Now,
	}

	router := newRouter(svc, authMiddleware)

	logrus.Infof("Dashboard service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start dashboard service:", err)
	}
}
