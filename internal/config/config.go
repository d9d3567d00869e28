package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultGRPCAddr        = ":7000"
	defaultDatabaseURL     = "sqlite:///tmp/terramarya.db"
	defaultRedisAddr       = "localhost:6379"
	defaultRedisPrefix     = "terramarya"
	defaultAMQPQueue       = "reservation.confirmed"
	defaultAllowedOrigin   = "http://localhost:5173"
	defaultPublishTimeout  = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Storage names a persistence backend.
type Storage string

const (
	// StorageSQL stores state through GORM on sqlite, postgres or mysql.
	StorageSQL Storage = "sql"
	// StoragePGX stores state through a pgx pool on postgres.
	StoragePGX Storage = "pgx"
	// StorageRedis stores state in Redis string keys.
	StorageRedis Storage = "redis"
	// StorageMemory keeps state in process memory only.
	StorageMemory Storage = "memory"
)

// Config aggregates runtime settings for the Terramarya server.
type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	Storage         Storage
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTLS        bool
	RedisPrefix     string
	AMQPURL         string
	AMQPQueue       string
	AllowedOrigins  []string
	JWTSigningKey   string
	MemberName      string
	PublishTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Validate fills defaults and ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.HTTPAddr = defaultIfEmpty(cfg.HTTPAddr, defaultHTTPAddr)
	cfg.GRPCAddr = defaultIfEmpty(cfg.GRPCAddr, defaultGRPCAddr)
	cfg.Storage = Storage(strings.ToLower(defaultIfEmpty(string(cfg.Storage), string(StorageSQL))))
	cfg.RedisAddr = defaultIfEmpty(cfg.RedisAddr, defaultRedisAddr)
	cfg.RedisPrefix = defaultIfEmpty(cfg.RedisPrefix, defaultRedisPrefix)
	cfg.AMQPQueue = defaultIfEmpty(cfg.AMQPQueue, defaultAMQPQueue)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.MemberName = strings.TrimSpace(cfg.MemberName)
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("redis db must be non-negative, got %d", cfg.RedisDB)
	}

	switch cfg.Storage {
	case StorageSQL:
		cfg.DatabaseURL = defaultIfEmpty(cfg.DatabaseURL, defaultDatabaseURL)
	case StoragePGX:
		if !IsPostgresURL(cfg.DatabaseURL) {
			return fmt.Errorf("pgx storage requires a postgres database url")
		}
	case StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
	return nil
}

// PublishingEnabled reports whether reservations are sent to a broker.
func (cfg Config) PublishingEnabled() bool {
	return strings.TrimSpace(cfg.AMQPURL) != ""
}

// AdminEnabled reports whether the admin routes are served.
func (cfg Config) AdminEnabled() bool {
	return cfg.JWTSigningKey != ""
}

// IsPostgresURL reports whether dsn uses a postgres scheme.
func IsPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
