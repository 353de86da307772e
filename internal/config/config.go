// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"fmt"
	"haversine-udf/internal/domain"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Compute  ComputeConfig
}

type ServerConfig struct {
	Port         string
	MaxBodyBytes int64
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig applies to whichever result cache backend is selected.
type CacheConfig struct {
	TTL time.Duration
}

type ComputeConfig struct {
	NullPolicy      domain.NullPolicy
	ParallelWorkers int
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	// A missing .env is normal outside local runs.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	policy, err := domain.ParseNullPolicy(Get("NULL_POLICY", "reject"))
	if err != nil {
		return Config{}, fmt.Errorf("load config: NULL_POLICY: %w", err)
	}

	maxBody, err := cast.ToInt64E(Get("MAX_BODY_BYTES", "33554432"))
	if err != nil || maxBody <= 0 {
		return Config{}, fmt.Errorf("load config: MAX_BODY_BYTES must be a positive integer, got %q", Get("MAX_BODY_BYTES", ""))
	}

	redisDB, err := cast.ToIntE(Get("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("load config: REDIS_DB: %w", err)
	}

	ttl, err := cast.ToDurationE(Get("RESULT_CACHE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("load config: RESULT_CACHE_TTL: %w", err)
	}

	workers, err := cast.ToIntE(Get("PARALLEL_WORKERS", "0"))
	if err != nil || workers < 0 {
		return Config{}, fmt.Errorf("load config: PARALLEL_WORKERS must be a non-negative integer, got %q", Get("PARALLEL_WORKERS", ""))
	}

	return Config{
		Server: ServerConfig{
			Port:         Get("PORT", "8080"),
			MaxBodyBytes: maxBody,
		},
		Log: LogConfig{
			Level:  Get("LOG_LEVEL", "info"),
			Format: Get("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL: Get("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     Get("REDIS_ADDR", ""),
			Password: Get("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTL: ttl,
		},
		Compute: ComputeConfig{
			NullPolicy:      policy,
			ParallelWorkers: workers,
		},
	}, nil
}

// Return the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
