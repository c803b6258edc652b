// Package config loads service configuration from the environment. A .env
// file, when present, is read first by LoadEnvFile.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type RedisConfig struct {
	Host       string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port       string        `env:"REDIS_PORT" envDefault:"6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	ClaimsTTL  time.Duration `env:"ACTOR_CACHE_TTL" envDefault:"5m"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers       []string `env:"KAFKA_BROKER" envSeparator:"," envDefault:"localhost:9092"`
	ActivityTopic string   `env:"KAFKA_ACTIVITY_TOPIC" envDefault:"rental-activities"`
	GroupID       string   `env:"KAFKA_GROUP_ID" envDefault:"activity-service"`
	Workers       int      `env:"KAFKA_PRODUCER_WORKERS" envDefault:"4"`
	BufferSize    int      `env:"KAFKA_PRODUCER_BUFFER" envDefault:"1000"`
}

// AuthConfig selects how bearer tokens are verified. When SigningKey is set
// tokens are HMAC-signed; otherwise they are checked against the Cognito
// user pool's JWKS.
type AuthConfig struct {
	Region       string `env:"AWS_REGION" envDefault:"us-east-1"`
	UserPoolID   string `env:"COGNITO_USER_POOL_ID"`
	ClientID     string `env:"COGNITO_CLIENT_ID"`
	ClientSecret string `env:"COGNITO_CLIENT_SECRET"`
	SigningKey   string `env:"JWT_SIGNING_KEY"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoaderConfig bounds snapshot loads against the entity store.
type LoaderConfig struct {
	ReadTimeout     time.Duration `env:"LOADER_READ_TIMEOUT" envDefault:"5s"`
	BreakerFailures int           `env:"STORE_BREAKER_FAILURES" envDefault:"5"`
	BreakerReset    time.Duration `env:"STORE_BREAKER_RESET" envDefault:"30s"`
}

// RetryConfig drives the failed activity retry loop. Attempt n waits
// BaseDelay * 2^(n-1).
type RetryConfig struct {
	MaxRetries    int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"8"`
	BatchSize     int           `env:"RETRY_BATCH_SIZE" envDefault:"100"`
	CheckInterval time.Duration `env:"RETRY_CHECK_INTERVAL" envDefault:"30s"`
	BaseDelay     time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1m"`
}

// ServiceURLs are the upstreams the gateway proxies to.
type ServiceURLs struct {
	Auth      string `env:"AUTH_SERVICE_URL" envDefault:"http://localhost:8001"`
	Rental    string `env:"RENTAL_SERVICE_URL" envDefault:"http://localhost:8002"`
	Dashboard string `env:"DASHBOARD_SERVICE_URL" envDefault:"http://localhost:8003"`
	Activity  string `env:"ACTIVITY_SERVICE_URL" envDefault:"http://localhost:8004"`
}

// LoadEnvFile reads .env into the process environment if it exists.
func LoadEnvFile() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}
}

// Parse fills target from the environment.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Port returns the value of the named port variable or def.
func Port(key, def string) string {
	return getEnv(key, def)
}
