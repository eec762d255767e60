package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// DBDriver is "postgres" or "sqlite"; SQLitePath is only read for sqlite.
	DBDriver   string
	SQLitePath string
	DB         repository.Credentials

	RedisAddr      string
	RedisPassword  string
	CartCacheTTL   time.Duration
	IdempotencyTTL time.Duration

	// empty disables the outbox publisher
	KafkaBrokers []string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	cfg := &Config{
		HTTPPort:   getEnv("HTTP_PORT", "8080"),
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		SQLitePath: getEnv("SQLITE_PATH", "bark-bijou.db"),
		DB: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              port,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "bark_bijou"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", ""),
		},
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want postgres or sqlite", cfg.DBDriver)
	}
	if cfg.DB.MigrationsDirPath == "" {
		cfg.DB.MigrationsDirPath = "./internal/repository/migrations/" + cfg.DBDriver
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
		def time.Duration
	}{
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout, 30 * time.Second},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout, 10 * time.Second},
		{"CART_CACHE_TTL", &cfg.CartCacheTTL, 15 * time.Minute},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL, 24 * time.Hour},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
