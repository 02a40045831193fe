package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
)

type Config struct {
	HTTPAddr string

	// Digest settings
	Algorithm      string
	SHA256Backend  string
	OpenSSLLibrary string

	// Auth settings
	JWTSecret string
	JWTExpiry time.Duration
	APIKey    string
	APISecret string

	// Limits
	MaxConcurrent int
	RateLimit     int
	BodyLimit     string

	Debug bool
}

// Load reads .env files (when present) into the environment and builds a Config.
func Load(filenames ...string) (Config, error) {
	// A missing .env is normal outside local development.
	_ = gotenv.Load(filenames...)
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		Algorithm:      getenv("DIGEST_ALGORITHM", "sha256"),
		SHA256Backend:  getenv("SHA256_BACKEND", "std"),
		OpenSSLLibrary: getenv("OPENSSL_LIBCRYPTO", "libcrypto.so.3"),
		JWTSecret:      getenv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production"),
		APIKey:         getenv("API_KEY", "John"),
		APISecret:      getenv("API_SECRET", "Doe"),
		BodyLimit:      getenv("BODY_LIMIT", "10MB"),
		Debug:          os.Getenv("DEBUG") == "true",
	}

	var err error
	if cfg.JWTExpiry, err = time.ParseDuration(getenv("JWT_EXPIRY", "24h")); err != nil {
		return Config{}, fmt.Errorf("parsing JWT_EXPIRY: %w", err)
	}
	if cfg.MaxConcurrent, err = atoi("MAX_CONCURRENT", 10); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = atoi("RATE_LIMIT", 20); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func atoi(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
