package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	TransportNone  = "none"
	TransportRedis = "redis"
	TransportKafka = "kafka"
)

type Config struct {
	Environment string `env:"ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`

	Storage     string `env:"STORAGE" default:"mongo"` // mongo (entries) + postgres (users), or memory
	MongoURI    string `env:"MONGODB_URI" default:"mongodb://localhost:27017/serenify"`
	PostgresURI string `env:"POSTGRES_URI" default:"postgres://localhost:5432/serenify?sslmode=disable"`
	RedisURI    string `env:"REDIS_URI"` // Empty disables caching and sessions fall back to memory

	EventTransport string `env:"EVENT_TRANSPORT" default:"none"`
	KafkaBrokers   string `env:"KAFKA_BROKERS" default:"localhost:9092"`
	SentimentTopic string `env:"SENTIMENT_TOPIC" default:"weekly_sentiments"`

	EntryCacheTTL     time.Duration `env:"ENTRY_CACHE_TTL" default:"10m"`
	DeleteUserEntries bool          `env:"DELETE_USER_ENTRIES" default:"false"`

	AllowedOriginsRaw string `env:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedHost       string `env:"ALLOWED_HOST"` // Production host check; empty disables it
	AdminUsersRaw     string `env:"ADMIN_USERS"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	AllowedOrigins []string
	AdminUsers     []string
	Brokers        []string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.EventTransport = strings.ToLower(strings.TrimSpace(c.EventTransport))
	c.AllowedOrigins = parseList(c.AllowedOriginsRaw)
	c.AdminUsers = parseList(c.AdminUsersRaw)
	c.Brokers = parseList(c.KafkaBrokers)

	switch c.Storage {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMongo, StorageMemory, c.Storage)
	}

	switch c.EventTransport {
	case TransportNone:
	case TransportRedis:
		if c.RedisURI == "" {
			return fmt.Errorf("EVENT_TRANSPORT=redis requires REDIS_URI")
		}
	case TransportKafka:
		if len(c.Brokers) == 0 {
			return fmt.Errorf("EVENT_TRANSPORT=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("EVENT_TRANSPORT must be none, redis or kafka, got %q", c.EventTransport)
	}

	if strings.TrimSpace(c.SentimentTopic) == "" {
		return fmt.Errorf("SENTIMENT_TOPIC must not be empty")
	}
	if c.EntryCacheTTL <= 0 {
		return fmt.Errorf("ENTRY_CACHE_TTL must be positive")
	}
	return nil
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// IsAdmin reports whether username is listed in ADMIN_USERS.
func (c *Config) IsAdmin(username string) bool {
	for _, a := range c.AdminUsers {
		if strings.EqualFold(a, username) {
			return true
		}
	}
	return false
}
