package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrNoAllowedOrigins is returned when CORS_ALLOWED_ORIGINS names no origin
var ErrNoAllowedOrigins = errors.New("CORS_ALLOWED_ORIGINS must list at least one origin")

// Config holds all configuration for the development backend
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// HTTP Configuration
	Server ServerConfig

	// Token Configuration
	Auth AuthConfig

	// Seed Configuration
	Seed SeedConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Address        string
	AllowedOrigins []string
}

// AuthConfig holds token configuration
type AuthConfig struct {
	JWTSecret       string // empty = generated once and stored in the database
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// SeedConfig controls the data created on first start
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	DemoData      bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	accessTTL, err := durationEnv("ACCESS_TOKEN_LIFETIME", 60*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := durationEnv("REFRESH_TOKEN_LIFETIME", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	demoData := true
	if raw := os.Getenv("SEED_DEMO_DATA"); raw != "" {
		demoData, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED_DEMO_DATA %q: %w", raw, err)
		}
	}

	origins := listEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	if len(origins) == 0 {
		return nil, ErrNoAllowedOrigins
	}

	return &Config{
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "shopadmin.sqlite"),
		},
		Server: ServerConfig{
			Address:        stringEnv("LISTEN_ADDRESS", ":8000"),
			AllowedOrigins: origins,
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
		},
		Seed: SeedConfig{
			AdminEmail:    stringEnv("ADMIN_EMAIL", "admin@shop.test"),
			AdminPassword: stringEnv("ADMIN_PASSWORD", "admin123"),
			DemoData:      demoData,
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive duration such as 60m", key, raw)
	}
	return d, nil
}
