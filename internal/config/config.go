// Package config loads service configuration from environment variables
// with development-friendly defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port         string
	LogLevel     string
	StoreBackend string // "memory" or "postgres"
	DBConn       string

	JWTSecret string
	TokenTTL  time.Duration

	AllowedOrigins []string

	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SenderEmail string

	// DigestSchedule is a cron expression for the weekly risk digest.
	DigestSchedule string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreBackend:   getEnv("STORE_BACKEND", "memory"),
		DBConn:         getEnv("DB_CONN", "host=localhost port=5432 user=finpulse password=finpulse dbname=finpulse sslmode=disable"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:       ttl,
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		SenderEmail:    getEnv("SENDER_EMAIL", "digest@finpulse.local"),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 8 * * MON"),
	}

	switch cfg.StoreBackend {
	case "memory", "postgres":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == "postgres" && cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required for the postgres backend")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// MailEnabled reports whether SMTP is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
