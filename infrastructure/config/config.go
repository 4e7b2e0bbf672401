// Package config loads infrastructure configuration from the
// environment. Domain-level settings live in domain/config.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Remote entity backend
	BackendBaseURL string
	CSRFPath       string
	RequestTimeout time.Duration

	// Circuit breaker
	BreakerMaxFailures  int
	BreakerOpenInterval time.Duration

	// Local persistence
	DataDir          string
	SnapshotFilename string
	IdentityFilename string

	// Background sync; empty disables the cron re-sync
	SyncSchedule string

	// Rate limiting for local API clients
	RateLimitBurst    int
	RateLimitInterval time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics            bool
	EnableCORS               bool
	AllowReopenWithResponses bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
		CSRFPath:       getEnv("BACKEND_CSRF_PATH", "/api/csrf/"),
		RequestTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		BreakerMaxFailures:  getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerOpenInterval: getEnvDuration("BREAKER_OPEN_INTERVAL", 30*time.Second),

		DataDir:          getEnv("DATA_DIR", ".widgetboard"),
		SnapshotFilename: getEnv("SNAPSHOT_FILENAME", "board.json"),
		IdentityFilename: getEnv("IDENTITY_FILENAME", "identity"),

		SyncSchedule: getEnv("SYNC_SCHEDULE", ""),

		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 60),
		RateLimitInterval: getEnvDuration("RATE_LIMIT_INTERVAL", time.Second),

		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		EnableMetrics:            getEnvBool("ENABLE_METRICS", true),
		EnableCORS:               getEnvBool("ENABLE_CORS", true),
		AllowReopenWithResponses: getEnvBool("ALLOW_REOPEN_WITH_RESPONSES", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if u, err := url.Parse(c.BackendBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute URL: %q", c.BackendBaseURL)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
