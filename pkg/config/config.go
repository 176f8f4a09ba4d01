package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	BackendURL         string
	RedisURL           string
	TokenTTL           time.Duration
	SessionIdle        time.Duration
	SweepInterval      time.Duration
	RateLimitPerMinute int
	LoginPerMinute     int
	CORSAllowedOrigins []string
	CookieSecure       bool
	OTLPEndpoint       string
	Database           DatabaseConfig
}

// DatabaseConfig locates the optional audit database. An empty Host
// disables persistence of audit entries.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled reports whether an audit database is configured.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

// Load reads configuration from environment variables, after loading a
// .env file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	tokenTTLHours, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %w", err)
	}

	idleMinutes, err := strconv.Atoi(getEnv("SESSION_IDLE_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_MINUTES: %w", err)
	}

	sweepMinutes, err := strconv.Atoi(getEnv("SWEEP_INTERVAL_MINUTES", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL_MINUTES: %w", err)
	}
	if sweepMinutes <= 0 {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL_MINUTES: must be positive")
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	loginLimit, err := strconv.Atoi(getEnv("LOGIN_ATTEMPTS_PER_MINUTE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MINUTE: %w", err)
	}

	cookieSecure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:5000"),
		RedisURL:           os.Getenv("REDIS_URL"),
		TokenTTL:           time.Duration(tokenTTLHours) * time.Hour,
		SessionIdle:        time.Duration(idleMinutes) * time.Minute,
		SweepInterval:      time.Duration(sweepMinutes) * time.Minute,
		RateLimitPerMinute: rateLimit,
		LoginPerMinute:     loginLimit,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		CookieSecure: cookieSecure,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "orderdesk"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "orderdesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
