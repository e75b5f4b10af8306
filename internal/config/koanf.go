// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cargomap/config.yaml",
	"/etc/cargomap/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			URL:        "",
			APIKey:     "",
			Timeout:    30 * time.Second,
			RateLimit:  5,
			RateBurst:  2,
			MaxRetries: 3,
			Breaker: BreakerConfig{
				MaxRequests: 3,
				Interval:    time.Minute,
				Timeout:     2 * time.Minute,
				MinRequests: 10,
				FailureRate: 0.6,
			},
		},
		Refresh: RefreshConfig{
			Interval:      time.Hour,
			RetryAttempts: 3,
			RetryDelay:    5 * time.Second,
			OnStartup:     true,
		},
		Cache: CacheConfig{
			Backend:          "file",
			Path:             "/data/cargomap",
			Key:              "containers.json",
			RedisAddr:        "127.0.0.1:6379",
			RedisPrefix:      "cargomap:",
			JourneyCacheSize: 1024,
		},
		Events: EventsConfig{
			Backend:    "gochannel",
			BufferSize: 64,
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				Embedded:      false,
				Host:          "127.0.0.1",
				Port:          4222,
				MaxReconnects: -1, // reconnect forever
				ReconnectWait: 2 * time.Second,
			},
		},
		Focus: FocusConfig{
			Interval: 4 * time.Second,
		},
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
			File: LogFileConfig{
				MaxSizeMB:  100,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// LoadWithKoanf loads configuration in three layers: struct defaults, the
// optional YAML file, then mapped environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH when it exists, else the first of
// DefaultConfigPaths that exists, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are keys that accept a comma-separated string from env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values into string slices.
// Values already loaded as lists (from YAML) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf keys.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Upstream tracking API
	"upstream_url":                 "upstream.url",
	"upstream_api_key":             "upstream.api_key",
	"upstream_timeout":             "upstream.timeout",
	"upstream_rate_limit":          "upstream.rate_limit",
	"upstream_rate_burst":          "upstream.rate_burst",
	"upstream_max_retries":         "upstream.max_retries",
	"circuit_breaker_max_requests": "upstream.breaker.max_requests",
	"circuit_breaker_interval":     "upstream.breaker.interval",
	"circuit_breaker_timeout":      "upstream.breaker.timeout",
	"circuit_breaker_min_requests": "upstream.breaker.min_requests",
	"circuit_breaker_failure_rate": "upstream.breaker.failure_rate",

	// Refresh schedule
	"refresh_interval":       "refresh.interval",
	"refresh_retry_attempts": "refresh.retry_attempts",
	"refresh_retry_delay":    "refresh.retry_delay",
	"refresh_on_startup":     "refresh.on_startup",

	// Snapshot cache
	"cache_backend":      "cache.backend",
	"cache_path":         "cache.path",
	"cache_key":          "cache.key",
	"redis_addr":         "cache.redis_addr",
	"redis_password":     "cache.redis_password",
	"redis_db":           "cache.redis_db",
	"redis_prefix":       "cache.redis_prefix",
	"journey_cache_size": "cache.journey_cache_size",

	// Events
	"events_backend":      "events.backend",
	"events_buffer_size":  "events.buffer_size",
	"nats_url":            "events.nats.url",
	"nats_embedded":       "events.nats.embedded",
	"nats_host":           "events.nats.host",
	"nats_port":           "events.nats.port",
	"nats_max_reconnects": "events.nats.max_reconnects",
	"nats_reconnect_wait": "events.nats.reconnect_wait",

	// Focus cycle
	"focus_interval": "focus.interval",

	// HTTP server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"log_caller":           "logging.caller",
	"log_file":             "logging.file.path",
	"log_file_max_size_mb": "logging.file.max_size_mb",
	"log_file_max_backups": "logging.file.max_backups",
	"log_file_max_age":     "logging.file.max_age_days",
	"log_file_compress":    "logging.file.compress",
}

// envTransformFunc maps an environment variable name to its koanf key.
// Returning "" drops the variable.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
