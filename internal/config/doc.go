// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package config provides centralized configuration management for Cargomap.

Configuration is layered with Koanf v2. Built-in defaults are loaded first,
then an optional YAML file, then environment variables. Later layers win.

# Config File

The first existing file among CONFIG_PATH, config.yaml, config.yml,
/etc/cargomap/config.yaml and /etc/cargomap/config.yml is loaded:

	upstream:
	  url: https://tracking.example.com
	  api_key: s3cret
	refresh:
	  interval: 1h
	cache:
	  backend: badger
	  path: /data/cargomap
	events:
	  backend: nats
	  nats:
	    embedded: true

# Environment Variables

Upstream tracking API:
  - UPSTREAM_URL: Base URL (required)
  - UPSTREAM_API_KEY: Sent as X-API-Key when set
  - UPSTREAM_TIMEOUT: Request timeout (default: 30s)
  - UPSTREAM_RATE_LIMIT, UPSTREAM_RATE_BURST: Client-side pacing (default: 5/s, burst 2)
  - CIRCUIT_BREAKER_*: Breaker tuning

Refresh schedule:
  - REFRESH_INTERVAL: Time between scheduled refreshes (default: 1h)
  - REFRESH_RETRY_ATTEMPTS: Attempts per scheduled refresh (default: 3)
  - REFRESH_RETRY_DELAY: Initial backoff (default: 5s)
  - REFRESH_ON_STARTUP: Refresh once at boot (default: true)

Snapshot cache:
  - CACHE_BACKEND: file, badger or redis (default: file)
  - CACHE_PATH: Data directory (default: /data/cargomap)
  - CACHE_KEY: Snapshot name (default: containers.json)
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_PREFIX

Events:
  - EVENTS_BACKEND: gochannel or nats (default: gochannel)
  - NATS_URL, NATS_EMBEDDED, NATS_HOST, NATS_PORT

HTTP server and security:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8080), HTTP_TIMEOUT
  - ENVIRONMENT: development, staging or production
  - CORS_ORIGINS: Comma-separated origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - LOG_FILE: Rotated JSON log path (optional)

# Validation

Load returns an error when UPSTREAM_URL is missing, a value is out of range,
or a backend name is unknown. Nothing is started with a half-valid config.
*/
package config
