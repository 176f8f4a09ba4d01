package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "BACKEND_URL", "REDIS_URL", "DB_HOST", "TOKEN_TTL_HOURS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.ServerPort)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.RedisURL != "" || cfg.Database.Enabled() {
		t.Error("expected redis and database unconfigured by default")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("expected two default origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SESSION_IDLE_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 9090 || cfg.SessionIdle != 5*time.Minute {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.Database.Enabled() || cfg.Database.Name != "orderdesk" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if want := []string{"https://a.example", "https://b.example"}; len(cfg.CORSAllowedOrigins) != 2 ||
		cfg.CORSAllowedOrigins[0] != want[0] || cfg.CORSAllowedOrigins[1] != want[1] {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := []struct{ key, value string }{
		{"SERVER_PORT", "http"},
		{"TOKEN_TTL_HOURS", "x"},
		{"SWEEP_INTERVAL_MINUTES", "0"},
		{"COOKIE_SECURE", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
