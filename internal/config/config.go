package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string

	// MongoDB
	MongoURI         string
	DatabaseName     string
	UsersCollection  string
	RobotsCollection string

	// Authentication
	JWTSecret        string
	TokenTTL         time.Duration
	IdentityCacheTTL time.Duration

	// Bootstrap password for the "admin" account; empty disables seeding
	AdminPassword string

	// CORS
	AllowedOrigins string

	// Cron spec for the stale-owner sweep; empty disables it
	OwnerSweepCron string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "")),

		MongoURI:         getEnv("MONGODB_URI", ""),
		DatabaseName:     getEnv("DB_NAME", ""),
		UsersCollection:  getEnv("USERS_COLLECTION", "users"),
		RobotsCollection: getEnv("ROBOTS_COLLECTION", "robots"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		TokenTTL:         getDurationEnv("TOKEN_TTL", time.Hour),
		IdentityCacheTTL: getDurationEnv("IDENTITY_CACHE_TTL", 30*time.Second),

		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),

		OwnerSweepCron: getEnv("OWNER_SWEEP_CRON", "0 3 * * *"),
	}
}

// IsDevelopment reports whether relaxed development defaults apply.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "testing" || c.Environment == ""
}

// Validate checks settings that must be present before the server starts.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required when ENVIRONMENT=%s", c.Environment)
	}
	if c.MongoURI == "" && !c.IsDevelopment() {
		return fmt.Errorf("MONGODB_URI is required when ENVIRONMENT=%s", c.Environment)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %v", c.TokenTTL)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
