package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eventforge")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eventforge")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessExpiry != time.Hour {
		t.Fatalf("unexpected access expiry: %v", cfg.Auth.AccessExpiry)
	}
	if cfg.Auth.RefreshExpiry != 720*time.Hour {
		t.Fatalf("unexpected refresh expiry: %v", cfg.Auth.RefreshExpiry)
	}
	if cfg.Environment != "development" {
		t.Fatalf("unexpected environment: %s", cfg.Environment)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/eventforge")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_EXPIRY_MINUTES", "15")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessExpiry != 15*time.Minute {
		t.Fatalf("unexpected access expiry: %v", cfg.Auth.AccessExpiry)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %s", cfg.Logging.Format)
	}
}
