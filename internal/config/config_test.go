package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Cache.FilteredTTLSeconds != 300 {
		t.Errorf("Expected filtered TTL 300, got %d", cfg.Cache.FilteredTTLSeconds)
	}
	if cfg.Cache.BrowseTTLSeconds != 60 {
		t.Errorf("Expected browse TTL 60, got %d", cfg.Cache.BrowseTTLSeconds)
	}
	if cfg.Cache.ProductTTLSeconds != 900 {
		t.Errorf("Expected product TTL 900, got %d", cfg.Cache.ProductTTLSeconds)
	}
	if cfg.Database.Retry.Attempts != 3 {
		t.Errorf("Expected 3 retry attempts, got %d", cfg.Database.Retry.Attempts)
	}
	if cfg.Server.RequestTimeoutSeconds != 15 {
		t.Errorf("Expected request timeout 15, got %d", cfg.Server.RequestTimeoutSeconds)
	}
	if cfg.Cache.SingleFlight {
		t.Error("Single-flight should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("CACHE_TTL_BROWSE_SECONDS", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if !cfg.Redis.Enabled() {
		t.Error("Redis should be enabled when REDIS_HOST is set")
	}
	if cfg.Cache.BrowseTTLSeconds != 15 {
		t.Errorf("Expected browse TTL 15, got %d", cfg.Cache.BrowseTTLSeconds)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 allowed origins, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Load()
	cfg.Cache.ProductTTLSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for zero TTL")
	}

	cfg = Load()
	cfg.Database.Retry.MaxDelayMS = 10
	cfg.Database.Retry.InitialDelayMS = 100
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error when max delay is below initial delay")
	}
}

func TestRedisDisabledWithoutEndpoint(t *testing.T) {
	cfg := RedisConfig{Port: "6379"}
	if cfg.Enabled() {
		t.Error("Redis should be disabled without URL or host")
	}
}

func TestDurationHelpers(t *testing.T) {
	if Duration(250) != 250*time.Millisecond {
		t.Errorf("Duration(250) = %v", Duration(250))
	}
	if Seconds(60) != time.Minute {
		t.Errorf("Seconds(60) = %v", Seconds(60))
	}
}
