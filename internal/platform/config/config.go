package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration

	// PostgresURL selects the persistent stores; empty means in-memory.
	PostgresURL string
	// RedisURL enables the dashboard availability cache; empty disables it.
	RedisURL             string
	AvailabilityCacheTTL time.Duration

	// AuditBuffer sizes the audit event channel.
	AuditBuffer int

	// Failed-login lockout: LoginMaxFailures attempts within
	// LoginFailureWindow lock the account for LoginLockDuration.
	LoginMaxFailures   int
	LoginFailureWindow time.Duration
	LoginLockDuration  time.Duration

	// Admin bootstrap account, seeded at startup if missing.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:                 envOr("BLOODLINK_ADDR", ":8080"),
		JWTSigningKey:        envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:             durationOr("TOKEN_TTL", time.Hour),
		PostgresURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		AvailabilityCacheTTL: durationOr("AVAILABILITY_CACHE_TTL", 30*time.Second),
		AuditBuffer:          intOr("AUDIT_BUFFER", 256),
		LoginMaxFailures:     intOr("LOGIN_MAX_FAILURES", 5),
		LoginFailureWindow:   durationOr("LOGIN_FAILURE_WINDOW", 15*time.Minute),
		LoginLockDuration:    durationOr("LOGIN_LOCK_DURATION", 15*time.Minute),
		AdminUsername:        envOr("ADMIN_USERNAME", "admin"),
		AdminEmail:           envOr("ADMIN_EMAIL", "admin@bloodlink.local"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
