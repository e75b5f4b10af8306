// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateUpstream,
		c.validateRefresh,
		c.validateCache,
		c.validateEvents,
		c.validateFocus,
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateUpstream() error {
	if c.Upstream.URL == "" {
		return fmt.Errorf("UPSTREAM_URL is required")
	}
	if err := validateHTTPURL(c.Upstream.URL, "UPSTREAM_URL"); err != nil {
		return err
	}
	if containsPlaceholder(c.Upstream.APIKey) {
		return fmt.Errorf("UPSTREAM_API_KEY contains a placeholder value, set a real key or leave it empty")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.Upstream.RateLimit < 0 {
		return fmt.Errorf("UPSTREAM_RATE_LIMIT must not be negative")
	}
	if c.Upstream.RateLimit > 0 && c.Upstream.RateBurst < 1 {
		return fmt.Errorf("UPSTREAM_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if rate := c.Upstream.Breaker.FailureRate; rate <= 0 || rate > 1 {
		return fmt.Errorf("CIRCUIT_BREAKER_FAILURE_RATE must be in (0, 1]")
	}
	return nil
}

// Refresh bounds
const (
	minRefreshInterval = time.Minute
	maxRetryAttempts   = 10
)

func (c *Config) validateRefresh() error {
	if c.Refresh.Interval < minRefreshInterval {
		return fmt.Errorf("REFRESH_INTERVAL must be at least %v", minRefreshInterval)
	}
	if c.Refresh.RetryAttempts < 1 || c.Refresh.RetryAttempts > maxRetryAttempts {
		return fmt.Errorf("REFRESH_RETRY_ATTEMPTS must be between 1 and %d", maxRetryAttempts)
	}
	if c.Refresh.RetryDelay < 0 {
		return fmt.Errorf("REFRESH_RETRY_DELAY must not be negative")
	}
	return nil
}

// validCacheBackends defines the allowed snapshot stores
var validCacheBackends = map[string]bool{
	"file":   true,
	"badger": true,
	"redis":  true,
}

func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: file, badger, redis")
	}
	switch c.Cache.Backend {
	case "file", "badger":
		if c.Cache.Path == "" {
			return fmt.Errorf("CACHE_PATH is required for the %s backend", c.Cache.Backend)
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
		if c.Cache.RedisDB < 0 {
			return fmt.Errorf("REDIS_DB must not be negative")
		}
	}
	if c.Cache.Key == "" {
		return fmt.Errorf("CACHE_KEY must not be empty")
	}
	if c.Cache.JourneyCacheSize < 1 {
		return fmt.Errorf("JOURNEY_CACHE_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "gochannel":
		return nil
	case "nats":
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of: gochannel, nats")
	}

	if c.Events.NATS.Embedded {
		if c.Events.NATS.Port < 1 || c.Events.NATS.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535")
		}
		return nil
	}
	if c.Events.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats and NATS_EMBEDDED=false")
	}
	if err := validateNATSURL(c.Events.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateFocus() error {
	if c.Focus.Interval < time.Second {
		return fmt.Errorf("FOCUS_INTERVAL must be at least 1s")
	}
	return nil
}

// validEnvironments defines the allowed ENVIRONMENT values
var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if len(c.Security.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	return c.validateRateLimits()
}

// HasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true when wildcard CORS is used in production,
// which should be logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.IsProduction() && c.HasWildcardCORS()
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	if c.Logging.File.Path != "" && c.Logging.File.MaxSizeMB < 1 {
		return fmt.Errorf("LOG_FILE_MAX_SIZE_MB must be at least 1")
	}
	return nil
}

// placeholderPatterns are substrings that indicate a value was copied from
// an example file and never filled in.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_API_KEY",
	"PLACEHOLDER",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
