// Package config loads application configuration from environment
// variables. main loads a .env file first (via godotenv), so local
// development and deployed environments share one code path.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. The JWT secret is read once here
// and injected into the token issuer at construction; nothing reads it from
// the environment after startup.
type Config struct {
	Env       string // application environment (dev, prod)
	Port      string // HTTP port to listen on
	LogLevel  string // slog level (debug, info, warn, error)
	JWTSecret string // secret used to sign and verify tokens

	AccessTTL        time.Duration // access token lifetime
	RefreshTTL       time.Duration // refresh token lifetime
	PasswordResetTTL time.Duration // password-reset token lifetime
	EmailVerifyTTL   time.Duration // email-verification token lifetime

	PBKDF2Iterations int // iteration count for new password hashes
}

// Load reads configuration from the environment. Required variables are
// enforced by must(); optional ones fall back to the documented defaults.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTL:        envDur("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTTL:       envDur("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		PasswordResetTTL: envDur("PASSWORD_RESET_TTL", time.Hour),
		EmailVerifyTTL:   envDur("EMAIL_VERIFY_TTL", 24*time.Hour),
		PBKDF2Iterations: envInt("PBKDF2_ITERATIONS", 0), // 0 -> hasher default
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}
