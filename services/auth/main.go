package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/cache"
	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/store"
)

type serviceConfig struct {
	Port  string `env:"AUTH_SERVICE_PORT" envDefault:"8001"`
	Auth  config.AuthConfig
	Redis config.RedisConfig
	Kafka config.KafkaConfig
}

func main() {
	config.Bootstrap("auth")
	gin.SetMode(gin.ReleaseMode)

	var cfg serviceConfig
	if err := config.Parse(&cfg); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	st := store.New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	kv, closeKV := cache.Open(ctx, cfg.Redis)
	cancel()
	defer closeKV()

	idp, err := newCognitoProvider(cfg.Auth)
	if err != nil {
		log.Fatal("Failed to initialize Cognito client:", err)
	}

	sessions := cache.NewSessionStore(kv, cfg.Redis.SessionTTL)
	authMiddleware := middleware.NewAuthMiddleware(
		middleware.NewVerifier(cfg.Auth),
		st.Users,
		middleware.WithActorCache(cache.NewActorCache(kv, cfg.Redis.ClaimsTTL)),
		middleware.WithSessions(sessions),
	)

	producer := events.NewProducer(events.NewKafkaWriter(cfg.Kafka), cfg.Kafka)
	defer producer.Close()

	svc := &authService{
		idp:      idp,
		store:    st,
		sessions: sessions,
		auth:     authMiddleware,
		events:   producer,
		now:      time.Now,
	}

	router := newRouter(svc)

	logrus.Infof("Auth service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start auth service:", err)
	}
}
