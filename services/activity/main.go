package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/config"
	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/store"
)

type serviceConfig struct {
	Port  string `env:"ACTIVITY_SERVICE_PORT" envDefault:"8004"`
	Kafka config.KafkaConfig
	Retry config.RetryConfig
}

func main() {
	config.Bootstrap("activity")
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

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = st.Migrate(migrateCtx)
	cancel()
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retryConsumer := NewRetryConsumer(st, cfg.Retry)
	consumer := events.NewConsumer(events.NewKafkaReader(cfg.Kafka), retryConsumer.HandleEvent)
	defer consumer.Close()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			logrus.WithError(err).Error("Activity consumer stopped")
		}
	}()
	go retryConsumer.Run(ctx)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(retryConsumer, st),
	}
	go func() {
		logrus.Infof("Activity service starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start activity service:", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down activity service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Activity service shutdown failed")
	}
}
