// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every setting
//  2. Config File: optional config.yaml (or CONFIG_PATH)
//  3. Environment Variables: override any setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	store, err := cache.OpenStore(ctx, cache.StoreConfig{Backend: cfg.Cache.Backend, Path: cfg.Cache.Path})
type Config struct {
	Upstream UpstreamConfig `koanf:"upstream"`
	Refresh  RefreshConfig  `koanf:"refresh"`
	Cache    CacheConfig    `koanf:"cache"`
	Events   EventsConfig   `koanf:"events"`
	Focus    FocusConfig    `koanf:"focus"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// UpstreamConfig holds the tracking API connection settings.
type UpstreamConfig struct {
	// URL is the base URL of the tracking API, without the /DataEntity path.
	URL string `koanf:"url"`

	// APIKey is sent in the X-API-Key header when set.
	APIKey string `koanf:"api_key"`

	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is requests per second; zero disables client-side pacing.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// MaxRetries bounds retries on 429 responses.
	MaxRetries int `koanf:"max_retries"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker around the tracking API.
type BreakerConfig struct {
	MaxRequests uint32        `koanf:"max_requests"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`
	MinRequests uint32        `koanf:"min_requests"`
	FailureRate float64       `koanf:"failure_rate"`
}

// RefreshConfig holds the periodic refresh schedule.
type RefreshConfig struct {
	Interval      time.Duration `koanf:"interval"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	OnStartup     bool          `koanf:"on_startup"`
}

// CacheConfig selects where the container snapshot is stored.
type CacheConfig struct {
	// Backend is one of file, badger or redis.
	Backend string `koanf:"backend"`

	// Path is the data directory for the file and badger backends.
	Path string `koanf:"path"`

	// Key names the snapshot inside the store.
	Key string `koanf:"key"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// JourneyCacheSize bounds the per-generation route projection cache.
	JourneyCacheSize int `koanf:"journey_cache_size"`
}

// EventsConfig selects the refresh event bus.
type EventsConfig struct {
	// Backend is gochannel (single process) or nats.
	Backend    string     `koanf:"backend"`
	BufferSize int64      `koanf:"buffer_size"`
	NATS       NATSConfig `koanf:"nats"`
}

// NATSConfig holds NATS connection and embedded server settings.
type NATSConfig struct {
	URL           string        `koanf:"url"`
	Embedded      bool          `koanf:"embedded"`
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// FocusConfig controls the autoplay focus cycle.
type FocusConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`

	// File is an optional path for rotated JSON log output.
	File LogFileConfig `koanf:"file"`
}

// LogFileConfig configures rotated log files.
type LogFileConfig struct {
	Path       string `koanf:"path"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration with the following precedence (highest to lowest):
//  1. Environment variables
//  2. Config file (config.yaml, or the path in CONFIG_PATH)
//  3. Built-in defaults
func Load() (*Config, error) {
	return LoadWithKoanf()
}
