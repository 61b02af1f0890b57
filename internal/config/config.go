// Package config provides configuration management for the Threads Zapier
// gateway. Values load from environment variables with sensible defaults and
// are validated once at boot.
//
// Every variable also supports secret-file indirection: setting <NAME>_FILE to
// a path makes the loader read the value from that file instead (trailing
// whitespace stripped), which is how secrets are mounted in container
// deployments.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Threads API:
//   - THREADS_ZAPIER_THREADS_API_BASE_URL: Graph API base URL (default: https://graph.threads.net)
//   - THREADS_ZAPIER_THREADS_AUTHORIZE_URL: OAuth authorize endpoint (default: https://threads.net/oauth/authorize)
//   - THREADS_ZAPIER_THREADS_CLIENT_ID: OAuth client id
//   - THREADS_ZAPIER_THREADS_CLIENT_SECRET: OAuth client secret
//   - THREADS_ZAPIER_THREADS_REDIRECT_URI: Default OAuth redirect URI
//   - THREADS_ZAPIER_THREADS_SCOPES: Default authorize scope (default: threads_basic)
//   - THREADS_ZAPIER_REQUEST_TIMEOUT_SECONDS: Upstream request timeout (default: 10)
//
// Zapier:
//   - THREADS_ZAPIER_ZAPIER_VERIFICATION_TOKEN: Shared secret for Zapier endpoints (empty disables the check)
//
// Redis (optional token store backend, enabled when REDIS_ADDRESS is set):
//   - REDIS_ADDRESS: Redis server address (host:port)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the gateway.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Threads API settings
	ThreadsAPIBaseURL     string // Base URL of the Threads Graph API
	ThreadsAuthorizeURL   string // OAuth authorize endpoint
	ThreadsClientID       string // OAuth client id
	ThreadsClientSecret   string // OAuth client secret
	ThreadsRedirectURI    string // Default OAuth redirect URI
	ThreadsScopes         string // Default authorize scope
	RequestTimeoutSeconds string // Upstream request timeout in seconds

	// Zapier settings
	ZapierVerificationToken string // Shared secret for Zapier endpoints; empty disables verification

	// Redis configuration for the optional persistent token store
	RedisAddress  string // Redis server address (host:port); empty selects the in-memory store
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// fileErr records the first secret-file read failure so Validate can
	// surface it instead of silently running with a default value.
	fileErr error
}

// Load creates a new Config instance with values loaded from environment
// variables (or their _FILE secret-file counterparts). Call Validate on the
// result before use.
func Load() *Config {
	c := &Config{}

	c.Port = c.getEnv("PORT", "8080")
	c.LogLevel = c.getEnv("LOG_LEVEL", "info")

	c.ThreadsAPIBaseURL = c.getEnv("THREADS_ZAPIER_THREADS_API_BASE_URL", "https://graph.threads.net")
	c.ThreadsAuthorizeURL = c.getEnv("THREADS_ZAPIER_THREADS_AUTHORIZE_URL", "https://threads.net/oauth/authorize")
	c.ThreadsClientID = c.getEnv("THREADS_ZAPIER_THREADS_CLIENT_ID", "demo-client-id")
	c.ThreadsClientSecret = c.getEnv("THREADS_ZAPIER_THREADS_CLIENT_SECRET", "demo-client-secret")
	c.ThreadsRedirectURI = c.getEnv("THREADS_ZAPIER_THREADS_REDIRECT_URI", "https://example.com/oauth/callback")
	c.ThreadsScopes = c.getEnv("THREADS_ZAPIER_THREADS_SCOPES", "threads_basic")
	c.RequestTimeoutSeconds = c.getEnv("THREADS_ZAPIER_REQUEST_TIMEOUT_SECONDS", "10")

	c.ZapierVerificationToken = c.getEnv("THREADS_ZAPIER_ZAPIER_VERIFICATION_TOKEN", "")

	c.RedisAddress = c.getEnv("REDIS_ADDRESS", "")
	c.RedisPassword = c.getEnv("REDIS_PASSWORD", "")
	c.RedisDB = c.getEnv("REDIS_DB", "0")
	c.RedisPoolSize = c.getEnv("REDIS_POOL_SIZE", "10")

	return c
}

// getEnv resolves a configuration value: <key>_FILE wins, then the plain
// environment variable, then the default. A file read failure is recorded
// for Validate rather than returned so Load stays infallible.
func (c *Config) getEnv(key, defaultValue string) string {
	if path := os.Getenv(key + "_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if c.fileErr == nil {
				c.fileErr = fmt.Errorf("failed to read configuration from %s_FILE=%s: %w", key, path, err)
			}
			return defaultValue
		}
		return strings.TrimSpace(string(data))
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// RequestTimeout returns the upstream request timeout as a duration.
// Validate guarantees the underlying value parses.
func (c *Config) RequestTimeout() time.Duration {
	secs, err := strconv.ParseFloat(c.RequestTimeoutSeconds, 64)
	if err != nil || secs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

// Validate ensures all required values are present and well-formed.
// The application should call this after Load and before starting.
func (c *Config) Validate() error {
	if c.fileErr != nil {
		return c.fileErr
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.ThreadsAPIBaseURL == "" {
		return fmt.Errorf("THREADS_ZAPIER_THREADS_API_BASE_URL is required")
	}
	if c.ThreadsAuthorizeURL == "" {
		return fmt.Errorf("THREADS_ZAPIER_THREADS_AUTHORIZE_URL is required")
	}
	if c.ThreadsClientID == "" {
		return fmt.Errorf("THREADS_ZAPIER_THREADS_CLIENT_ID is required")
	}
	if c.ThreadsClientSecret == "" {
		return fmt.Errorf("THREADS_ZAPIER_THREADS_CLIENT_SECRET is required")
	}

	if secs, err := strconv.ParseFloat(c.RequestTimeoutSeconds, 64); err != nil || secs <= 0 {
		return fmt.Errorf("THREADS_ZAPIER_REQUEST_TIMEOUT_SECONDS must be a positive number")
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	return nil
}
