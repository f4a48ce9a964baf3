package config

import "testing"

func TestLoadDefaultsAndValidate(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("AUTH_HS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("default port: %s", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("default cors: %+v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRequiresTokenSource(t *testing.T) {
	cfg := Config{DatabaseDSN: "postgres://x"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without any token verification source")
	}
}

func TestCORSOriginsSplit(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.dev, https://b.dev ,")
	cfg := Load()
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.dev" {
		t.Fatalf("unexpected origins: %+v", cfg.CORSOrigins)
	}
}
