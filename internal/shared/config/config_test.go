package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "9090")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("IDENTITY_PROVIDER", "")
	t.Setenv("STATUS_CLEAR_AFTER", "")
	t.Setenv("MAX_SESSIONS", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.PublicBaseURL != "http://localhost:9090" {
		t.Fatalf("unexpected public base url %q", cfg.PublicBaseURL)
	}
	if cfg.ObjectStoreType != "local" || cfg.IdentityProvider != "local" {
		t.Fatalf("unexpected store/provider %q/%q", cfg.ObjectStoreType, cfg.IdentityProvider)
	}
	if cfg.StatusClearAfter != 10*time.Second {
		t.Fatalf("expected 10s status clear, got %s", cfg.StatusClearAfter)
	}
	if cfg.MaxSessions != 5000 {
		t.Fatalf("expected 5000 max sessions, got %d", cfg.MaxSessions)
	}
	if !cfg.IsDevLike() {
		t.Fatalf("expected dev-like config")
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("IDENTITY_PROVIDER", "Firebase")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/")
	t.Setenv("TOKEN_TTL", "not-a-duration")
	t.Setenv("AUTH_RATE_PER_MINUTE", "5")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example.com, ,https://b.example.com")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" || cfg.IdentityProvider != "firebase" {
		t.Fatalf("unexpected store/provider %q/%q", cfg.ObjectStoreType, cfg.IdentityProvider)
	}
	if cfg.BackendBaseURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BackendBaseURL)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("expected fallback token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.AuthRatePerMinute != 5 {
		t.Fatalf("expected rate 5, got %d", cfg.AuthRatePerMinute)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowOrigins)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
}
