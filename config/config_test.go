package config

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func TestLoadDefaults(t *testing.T) {
	Reset()
	cfg := Load()

	if cfg.AppPort != "8080" {
		t.Errorf("AppPort = %q, want 8080", cfg.AppPort)
	}
	if cfg.TokenTTLHours != 168 {
		t.Errorf("TokenTTLHours = %d, want 168", cfg.TokenTTLHours)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("RateLimitPerMinute = %d, want 60", cfg.RateLimitPerMinute)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("TOKEN_TTL_HOURS", "24")
	t.Setenv("DATABASE_URI", "sqlite://test.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	Reset()
	cfg := Load()

	if cfg.AppPort != "9999" {
		t.Errorf("AppPort = %q", cfg.AppPort)
	}
	if cfg.TokenTTLHours != 24 {
		t.Errorf("TokenTTLHours = %d", cfg.TokenTTLHours)
	}
	if cfg.DatabaseURI != "sqlite://test.db" {
		t.Errorf("DatabaseURI = %q", cfg.DatabaseURI)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != want[0] || cfg.AllowedOrigins[1] != want[1] {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}

	// Leave a clean slate for other tests once t.Setenv unwinds.
	t.Cleanup(Reset)
}

func TestGetCachesLoadedConfig(t *testing.T) {
	Reset()
	first := Get()
	t.Setenv("APP_PORT", "7777")
	second := Get()
	if first.AppPort != second.AppPort {
		t.Errorf("Get reloaded config: %q vs %q", first.AppPort, second.AppPort)
	}
	t.Cleanup(Reset)
}
