package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	JWTSecret string

	// Minimum gap between activity events accepted from one user. The
	// progress collaborator batches on its side; anything faster is abuse.
	RateLimitEvents time.Duration

	// TTL for the cached all-time point total in Redis.
	PointsCacheTTL time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "12345"),
	}

	// Parsing durations
	var err error
	cfg.RateLimitEvents, err = parseDuration(getEnv("RATE_LIMIT_EVENTS", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_EVENTS: %w", err)
	}
	cfg.PointsCacheTTL, err = parseDuration(getEnv("POINTS_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid POINTS_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
