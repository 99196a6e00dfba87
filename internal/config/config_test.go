package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "MONGODB_URI", "DB_NAME", "USERS_COLLECTION",
		"ROBOTS_COLLECTION", "JWT_SECRET", "TOKEN_TTL", "IDENTITY_CACHE_TTL", "ALLOWED_ORIGINS", "OWNER_SWEEP_CRON"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("expected default port 3001, got %s", cfg.Port)
	}
	if cfg.UsersCollection != "users" || cfg.RobotsCollection != "robots" {
		t.Errorf("unexpected collection defaults: %s/%s", cfg.UsersCollection, cfg.RobotsCollection)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected one hour token TTL, got %v", cfg.TokenTTL)
	}
	if cfg.AllowedOrigins != "http://localhost:5173" {
		t.Errorf("unexpected origin default: %s", cfg.AllowedOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Error("empty ENVIRONMENT should count as development")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ROBOTS_COLLECTION", "fleet")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("IDENTITY_CACHE_TTL", "not-a-duration")
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port override, got %s", cfg.Port)
	}
	if cfg.RobotsCollection != "fleet" {
		t.Errorf("expected robots collection override, got %s", cfg.RobotsCollection)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("expected 15m TTL, got %v", cfg.TokenTTL)
	}
	if cfg.IdentityCacheTTL != 30*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.IdentityCacheTTL)
	}
	if cfg.Environment != "production" || cfg.IsDevelopment() {
		t.Errorf("expected production environment, got %q", cfg.Environment)
	}
}

func TestValidate(t *testing.T) {
	prod := &Config{Environment: "production", TokenTTL: time.Hour}
	if err := prod.Validate(); err == nil {
		t.Error("expected missing secret to fail in production")
	}

	prod.JWTSecret = "secret"
	if err := prod.Validate(); err == nil {
		t.Error("expected missing MongoDB URI to fail in production")
	}

	prod.MongoURI = "mongodb://localhost:27017/michi"
	if err := prod.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	dev := &Config{Environment: "development", TokenTTL: time.Hour}
	if err := dev.Validate(); err != nil {
		t.Errorf("development config should validate without secrets, got %v", err)
	}
}
