// Package config loads application configuration from environment
// variables with local-development defaults.
package config

import (
	"os"
	"strings"
	"time"
)

// Config holds everything the process needs at startup.
type Config struct {
	Env      string
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// InternalSecret signs server-to-server requests. Empty means the
	// internal endpoints reject everything with a configuration error.
	InternalSecret string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// RedisAddr, when set, backs the replay cache with Redis instead of
	// the process-local map.
	RedisAddr string

	LogLevel string

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("PORT", "8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "nexus"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		InternalSecret:  os.Getenv("INTERNAL_API_SECRET"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       getEnv("JWT_ISSUER", "nexus-auth"),
		JWTAudience:     getEnv("JWT_AUDIENCE", "nexus-api"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ShutdownTimeout: 10 * time.Second,
	}
}

// DSN builds a libpq-compatible connection string.
func (c *Config) DSN() string {
	parts := []string{
		"host=" + c.DBHost,
		"port=" + c.DBPort,
		"user=" + c.DBUser,
		"password=" + c.DBPassword,
		"dbname=" + c.DBName,
		"sslmode=" + c.DBSSLMode,
	}
	return strings.Join(parts, " ")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
