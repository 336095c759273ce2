package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port        string
	DatabaseDSN string
	RedisAddr   string
	RedisDB     int
	JWTSecret   string
	Env         string

	// FeaturesURL is the collaborator endpoint serving runtime feature flags.
	FeaturesURL string
	// FeaturesTTL bounds how stale a cached flag snapshot may be.
	FeaturesTTL time.Duration

	// MatchStrategy selects the matcher algorithm: "score" or "first".
	MatchStrategy string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads the configuration from environment variables, falling back to
// development defaults.
func Load() Config {
	ttl := time.Duration(getenvInt("FEATURES_TTL_SECONDS", 30)) * time.Second
	return Config{
		Port:          getenv("APP_PORT", "8080"),
		DatabaseDSN:   getenv("DATABASE_DSN", "host=localhost user=user password=password dbname=pairchat port=5432 sslmode=disable"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		Env:           getenv("APP_ENV", "dev"),
		FeaturesURL:   getenv("FEATURES_URL", "http://localhost:3000/api/features"),
		FeaturesTTL:   ttl,
		MatchStrategy: getenv("MATCH_STRATEGY", "score"),
	}
}
