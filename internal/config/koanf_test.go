// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv unsets every mapped variable for the duration of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	keys := []string{ConfigPathEnvVar}
	for k := range envMappings {
		keys = append(keys, strings.ToUpper(k))
	}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Upstream.URL != "" {
		t.Errorf("Upstream.URL should be empty by default, got %q", cfg.Upstream.URL)
	}
	if cfg.Refresh.Interval != time.Hour {
		t.Errorf("Refresh.Interval = %v, want 1h", cfg.Refresh.Interval)
	}
	if !cfg.Refresh.OnStartup {
		t.Error("Refresh.OnStartup should be true by default")
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Cache.Key != "containers.json" {
		t.Errorf("Cache.Key = %q, want containers.json", cfg.Cache.Key)
	}
	if cfg.Events.Backend != "gochannel" {
		t.Errorf("Events.Backend = %q, want gochannel", cfg.Events.Backend)
	}
	if cfg.Focus.Interval != 4*time.Second {
		t.Errorf("Focus.Interval = %v, want 4s", cfg.Focus.Interval)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"UPSTREAM_URL", "upstream.url"},
		{"UPSTREAM_API_KEY", "upstream.api_key"},
		{"REFRESH_INTERVAL", "refresh.interval"},
		{"CACHE_BACKEND", "cache.backend"},
		{"REDIS_DB", "cache.redis_db"},
		{"NATS_EMBEDDED", "events.nats.embedded"},
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FILE", "logging.file.path"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	isolateEnv(t)

	if got := findConfigFile(); got != "" {
		t.Skipf("a default config file exists in the working directory: %s", got)
	}

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() with missing CONFIG_PATH = %q, want empty", got)
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolateEnv(t)
	setEnv(t, map[string]string{
		"UPSTREAM_URL":     "https://tracking.example.com/api",
		"UPSTREAM_API_KEY": "k-123",
		"REFRESH_INTERVAL": "30m",
		"CACHE_BACKEND":    "redis",
		"REDIS_ADDR":       "redis:6379",
		"REDIS_DB":         "2",
		"HTTP_PORT":        "9000",
		"LOG_LEVEL":        "debug",
		"CORS_ORIGINS":     "https://a.example.com, https://b.example.com",
	})

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Upstream.URL != "https://tracking.example.com/api" {
		t.Errorf("Upstream.URL = %q", cfg.Upstream.URL)
	}
	if cfg.Upstream.APIKey != "k-123" {
		t.Errorf("Upstream.APIKey = %q", cfg.Upstream.APIKey)
	}
	if cfg.Refresh.Interval != 30*time.Minute {
		t.Errorf("Refresh.Interval = %v, want 30m", cfg.Refresh.Interval)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "redis:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != want[0] || cfg.Security.CORSOrigins[1] != want[1] {
		t.Errorf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}

	// Defaults survive for unset values.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Refresh.RetryAttempts != 3 {
		t.Errorf("Refresh.RetryAttempts = %d, want 3 (default)", cfg.Refresh.RetryAttempts)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	isolateEnv(t)

	content := `
upstream:
  url: http://tracking.local:5000
  timeout: 10s
refresh:
  interval: 2h
  on_startup: false
cache:
  backend: badger
  path: /tmp/cargomap
events:
  backend: nats
  nats:
    embedded: true
    port: 4333
security:
  cors_origins:
    - https://map.example.com
logging:
  format: console
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Upstream.URL != "http://tracking.local:5000" || cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("Upstream = %+v", cfg.Upstream)
	}
	if cfg.Refresh.Interval != 2*time.Hour || cfg.Refresh.OnStartup {
		t.Errorf("Refresh = %+v", cfg.Refresh)
	}
	if cfg.Cache.Backend != "badger" || cfg.Cache.Path != "/tmp/cargomap" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Events.Backend != "nats" || !cfg.Events.NATS.Embedded || cfg.Events.NATS.Port != 4333 {
		t.Errorf("Events = %+v", cfg.Events)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "https://map.example.com" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "upstream:\n  url: http://file.local\nserver:\n  port: 7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	setEnv(t, map[string]string{
		ConfigPathEnvVar: path,
		"HTTP_PORT":      "7100",
	})

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want env value 7100", cfg.Server.Port)
	}
	if cfg.Upstream.URL != "http://file.local" {
		t.Errorf("Upstream.URL = %q, want file value", cfg.Upstream.URL)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing upstream url",
			env:     map[string]string{},
			wantErr: "UPSTREAM_URL is required",
		},
		{
			name:    "bad upstream scheme",
			env:     map[string]string{"UPSTREAM_URL": "ftp://tracking.local"},
			wantErr: "scheme must be http or https",
		},
		{
			name:    "placeholder api key",
			env:     map[string]string{"UPSTREAM_URL": "http://t.local", "UPSTREAM_API_KEY": "changeme"},
			wantErr: "placeholder",
		},
		{
			name:    "unknown cache backend",
			env:     map[string]string{"UPSTREAM_URL": "http://t.local", "CACHE_BACKEND": "s3"},
			wantErr: "CACHE_BACKEND",
		},
		{
			name:    "refresh interval too short",
			env:     map[string]string{"UPSTREAM_URL": "http://t.local", "REFRESH_INTERVAL": "10s"},
			wantErr: "REFRESH_INTERVAL",
		},
		{
			name:    "nats url with wrong scheme",
			env:     map[string]string{"UPSTREAM_URL": "http://t.local", "EVENTS_BACKEND": "nats", "NATS_URL": "http://nats.local"},
			wantErr: "NATS_URL is invalid",
		},
		{
			name:    "invalid port",
			env:     map[string]string{"UPSTREAM_URL": "http://t.local", "HTTP_PORT": "70000"},
			wantErr: "HTTP_PORT",
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"UPSTREAM_URL": "http://t.local", "LOG_LEVEL": "verbose"},
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "rate limit out of range",
			env:     map[string]string{"UPSTREAM_URL": "http://t.local", "RATE_LIMIT_REQUESTS": "0"},
			wantErr: "RATE_LIMIT_REQUESTS",
		},
		{
			name: "rate limit disabled skips bounds",
			env: map[string]string{
				"UPSTREAM_URL":        "http://t.local",
				"RATE_LIMIT_REQUESTS": "0",
				"DISABLE_RATE_LIMIT":  "true",
			},
		},
		{
			name: "embedded nats needs no url",
			env: map[string]string{
				"UPSTREAM_URL":   "http://t.local",
				"EVENTS_BACKEND": "nats",
				"NATS_EMBEDDED":  "true",
				"NATS_URL":       "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			setEnv(t, tt.env)

			_, err := LoadWithKoanf()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("LoadWithKoanf() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("LoadWithKoanf() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard CORS in development should not warn")
	}
	cfg.Server.Environment = "production"
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard CORS in production should warn")
	}
	cfg.Security.CORSOrigins = []string{"https://map.example.com"}
	if cfg.ShouldWarnAboutCORS() {
		t.Error("explicit origins should not warn")
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
