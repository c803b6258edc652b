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
	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/store"
)

type serviceConfig struct {
	Port   string `env:"RENTAL_SERVICE_PORT" envDefault:"8002"`
	Auth   config.AuthConfig
	Redis  config.RedisConfig
	Kafka  config.KafkaConfig
	Loader config.LoaderConfig
}

func main() {
	config.Bootstrap("rental")
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
	if err := st.Migrate(ctx); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	kv, closeKV := cache.Open(ctx, cfg.Redis)
	cancel()
	defer closeKV()

	authMiddleware := middleware.NewAuthMiddleware(
		middleware.NewVerifier(cfg.Auth),
		st.Users,
		middleware.WithActorCache(cache.NewActorCache(kv, cfg.Redis.ClaimsTTL)),
		middleware.WithSessions(cache.NewSessionStore(kv, cfg.Redis.SessionTTL)),
	)

	producer := events.NewProducer(events.NewKafkaWriter(cfg.Kafka), cfg.Kafka)
	defer producer.Close()

	svc := &rentalService{
		store:  st,
		loader: loader.New(loader.FromStore(st), cfg.Loader),
		events: producer,
		auth:   authMiddleware,
		now:    time.Now,
	}

	router := newRouter(svc, authMiddleware)

	logrus.Infof("Rental service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start rental service:", err)
	}
}
