package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DIGEST_ALGORITHM", "SHA256_BACKEND", "JWT_EXPIRY", "MAX_CONCURRENT", "RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Algorithm != "sha256" || cfg.SHA256Backend != "std" {
		t.Fatalf("unexpected digest defaults: %+v", cfg)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Fatalf("JWTExpiry = %v", cfg.JWTExpiry)
	}
	if cfg.MaxConcurrent != 10 || cfg.RateLimit != 20 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "lots")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for non-numeric MAX_CONCURRENT")
	}

	t.Setenv("MAX_CONCURRENT", "0")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for zero MAX_CONCURRENT")
	}

	t.Setenv("MAX_CONCURRENT", "")
	t.Setenv("JWT_EXPIRY", "tomorrow")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for bad JWT_EXPIRY")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	// gotenv never overrides variables that are already set.
	for _, key := range []string{"SHA256_BACKEND", "DIGEST_ALGORITHM", "DEBUG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SHA256_BACKEND=simd\nDIGEST_ALGORITHM=blake3\nDEBUG=true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SHA256Backend != "simd" {
		t.Fatalf("SHA256Backend = %q", cfg.SHA256Backend)
	}
	if cfg.Algorithm != "blake3" {
		t.Fatalf("Algorithm = %q", cfg.Algorithm)
	}
	if !cfg.Debug {
		t.Fatal("Debug not read from .env")
	}
}
