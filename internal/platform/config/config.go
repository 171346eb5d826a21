package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"nutri/internal/food/models"
	pstrings "nutri/pkg/platform/strings"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server    Server
	Logging   Logging
	Storage   Storage
	Redis     RedisConfig
	Kafka     KafkaConfig
	Messaging MessagingConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"NUTRI_ADDR,default=:3000"`
	Environment     string        `env:"NUTRI_ENV,default=development"`
	ShutdownTimeout time.Duration `env:"NUTRI_SHUTDOWN_TIMEOUT,default=10s"`
}

type Logging struct {
	Level string `env:"NUTRI_LOG_LEVEL,default=info"`
}

// Storage selects and configures the food repository.
type Storage struct {
	Driver          string        `env:"NUTRI_STORAGE_DRIVER,default=memory"`
	DatabaseURL     string        `env:"NUTRI_DATABASE_URL"`
	SQLitePath      string        `env:"NUTRI_SQLITE_PATH,default=nutri.db"`
	MaxOpenConns    int           `env:"NUTRI_DB_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"NUTRI_DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"NUTRI_DB_CONN_MAX_LIFETIME,default=5m"`
	NameMatching    string        `env:"NUTRI_NAME_MATCHING,default=exact"`
}

// RedisConfig configures the optional read-through cache. An empty URL
// disables caching.
type RedisConfig struct {
	URL          string        `env:"NUTRI_REDIS_URL"`
	PoolSize     int           `env:"NUTRI_REDIS_POOL_SIZE,default=10"`
	MinIdleConns int           `env:"NUTRI_REDIS_MIN_IDLE_CONNS,default=2"`
	DialTimeout  time.Duration `env:"NUTRI_REDIS_DIAL_TIMEOUT,default=5s"`
	ReadTimeout  time.Duration `env:"NUTRI_REDIS_READ_TIMEOUT,default=3s"`
	WriteTimeout time.Duration `env:"NUTRI_REDIS_WRITE_TIMEOUT,default=3s"`
	CacheTTL     time.Duration `env:"NUTRI_CACHE_TTL,default=5m"`
}

// KafkaConfig configures food event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers        string        `env:"NUTRI_KAFKA_BROKERS"`
	Topic          string        `env:"NUTRI_KAFKA_TOPIC,default=food-events"`
	PublishTimeout time.Duration `env:"NUTRI_KAFKA_PUBLISH_TIMEOUT,default=5s"`
}

// BrokerList splits the comma-separated broker setting, dropping blanks and
// repeats.
func (k KafkaConfig) BrokerList() []string {
	return pstrings.SplitList(k.Brokers, ",")
}

// MessagingConfig points at the messaging provider's websocket feed. An
// empty URL disables ingestion.
type MessagingConfig struct {
	URL            string        `env:"NUTRI_MESSAGING_URL"`
	Token          string        `env:"NUTRI_MESSAGING_TOKEN"`
	ReconnectDelay time.Duration `env:"NUTRI_MESSAGING_RECONNECT_DELAY,default=2s"`
	Workers        int           `env:"NUTRI_MESSAGING_WORKERS,default=1"`
}

// Load reads an optional dotenv file and then the environment. Variables
// already present in the environment win over the file.
func Load() (Config, error) {
	envFile := os.Getenv("NUTRI_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the composition root cannot wire.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("NUTRI_DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := models.ParseNamePolicy(c.Storage.NameMatching); err != nil {
		return fmt.Errorf("NUTRI_NAME_MATCHING: %w", err)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		return errors.New("NUTRI_SQLITE_PATH is required for the sqlite driver")
	}
	if c.Messaging.Workers < 1 {
		return errors.New("NUTRI_MESSAGING_WORKERS must be at least 1")
	}
	return nil
}

// IsProduction reports whether the service runs in a production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}
