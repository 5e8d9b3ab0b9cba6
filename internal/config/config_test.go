package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("JWT_EXPIRY_HOURS", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.HTTPPort)
	}
	if cfg.AdminUsername != "admin" {
		t.Errorf("expected default admin username, got %s", cfg.AdminUsername)
	}
	if cfg.JWTExpiryHours != 24 {
		t.Errorf("expected default expiry 24h, got %d", cfg.JWTExpiryHours)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected a generated JWT secret")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("HTTP_PORT", "8088")
	t.Setenv("ADMIN_USERNAME", "ops")
	t.Setenv("JWT_EXPIRY_HOURS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != 8088 {
		t.Errorf("expected port 8088, got %d", cfg.HTTPPort)
	}
	if cfg.AdminUsername != "ops" {
		t.Errorf("expected admin username ops, got %s", cfg.AdminUsername)
	}
	if cfg.JWTExpiryHours != 2 {
		t.Errorf("expected expiry 2h, got %d", cfg.JWTExpiryHours)
	}
}

func TestLoad_GeneratedSecretPersists(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("JWT_SECRET", "")

	first, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".jwt_secret")); err != nil {
		t.Fatalf("expected secret file to be written: %v", err)
	}

	second, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.JWTSecret != second.JWTSecret {
		t.Error("expected the generated secret to be stable across loads")
	}
}

func TestLoad_ExplicitSecretWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("JWT_SECRET", "configured-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != "configured-secret" {
		t.Errorf("expected env secret to win, got %s", cfg.JWTSecret)
	}
}
