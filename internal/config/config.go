package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Backend selection: "rest" talks to the external items API,
	// "memory" runs against an in-process stand-in (local development).
	DataBackend string

	// REST backend
	BackendBaseURL string
	BackendTimeout time.Duration

	// Browser sessions
	SessionTTL        time.Duration
	SessionMaxEntries int

	// Cache janitor
	CleanupInterval time.Duration
}

const (
	RESTBackend   = "rest"
	MemoryBackend = "memory"
)

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8082"),
		DataBackend: getEnv("DATA_BACKEND", MemoryBackend),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8080/api"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		SessionTTL:        getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMaxEntries: getEnvInt("SESSION_MAX_ENTRIES", 1000),

		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", 10*time.Minute),
	}
}

// Validate checks the configuration and returns a combined error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case RESTBackend, MemoryBackend:
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, RESTBackend, MemoryBackend))
	}

	if c.DataBackend == RESTBackend {
		if c.BackendBaseURL == "" {
			errs = append(errs, "backend base URL cannot be empty when using rest backend")
		} else if u, err := url.Parse(c.BackendBaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid backend base URL '%s': %v", c.BackendBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid backend base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.BackendTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid backend timeout %v: must be at least 1 second", c.BackendTimeout))
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionMaxEntries < 1 {
		errs = append(errs, fmt.Sprintf("invalid session max entries %d: must be at least 1", c.SessionMaxEntries))
	}
	if c.CleanupInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cleanup interval %v: must be at least 1 second", c.CleanupInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
