package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DevMode      bool   `env:"HOME_DEV_MODE" envDefault:"false"`
	HostPort     string `env:"HOME_HOST_PORT" envDefault:"8080"`
	ServerOrigin string `env:"HOME_SERVER_ORIGIN" envDefault:"http://localhost:8080"`

	DynamoDBEndpoint string `env:"HOME_DYNAMODB_ENDPOINT" envDefault:"http://localhost:8000"`
	DynamoDBTable    string `env:"HOME_DYNAMODB_TABLE" envDefault:"Homegate"`

	SQSEndpoint    string `env:"HOME_SQS_ENDPOINT" envDefault:"http://localhost:9324"`
	PurgeQueueName string `env:"HOME_PURGE_QUEUE" envDefault:"homegate-account-purge"`

	RedisEndpoint string `env:"HOME_REDIS_ENDPOINT" envDefault:"localhost:6379"`

	SessionTTL   time.Duration `env:"HOME_SESSION_TTL" envDefault:"168h"`
	HandshakeTTL time.Duration `env:"HOME_HANDSHAKE_TTL" envDefault:"5m"`
	SweepEvery   time.Duration `env:"HOME_SWEEP_EVERY" envDefault:"1h"`

	// Empty list means registration is open to anyone.
	Whitelist []string `env:"HOME_WHITELIST" envSeparator:","`

	// Default file and database services offered during handshake approval.
	StoreURL string `env:"HOME_STORE_URL" envDefault:"http://localhost:8081"`
	DBURL    string `env:"HOME_DB_URL" envDefault:"http://localhost:8082"`

	RemoteTimeout time.Duration `env:"HOME_REMOTE_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
