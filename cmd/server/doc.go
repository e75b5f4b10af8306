// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package main is the entry point for the Cargomap server.

Cargomap polls a container tracking API, keeps the latest snapshot in a
durable cache, and serves projected routes, vehicle pins and an autoplay
focus cycle to map clients over HTTP and WebSocket.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("cargomap")
	├── DataSupervisor ("data-layer")
	│   └── Embedded NATS server (NATS_EMBEDDED=true)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub
	│   ├── Refresh manager (scheduled upstream pulls)
	│   ├── Event forwarder (bus -> WebSocket)
	│   └── Focus broadcaster (autoplay frames)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog, optionally tee'd to a rotating file
 3. Snapshot store: file, badger or redis backend
 4. Upstream client: rate limited, behind a circuit breaker
 5. Event bus: watermill over gochannel or NATS
 6. Refresh manager, WebSocket hub, forwarder and focus broadcaster
 7. HTTP server: chi router with the /api/v1 endpoints and /metrics

# Configuration

Required:

	UPSTREAM_URL        base URL of the tracking API
	UPSTREAM_API_KEY    sent as X-API-Key

Common options:

	REFRESH_INTERVAL    scheduled refresh period (default 1h)
	CACHE_BACKEND       file, badger or redis (default file)
	CACHE_PATH          snapshot directory for file and badger
	EVENTS_BACKEND      gochannel or nats (default gochannel)
	NATS_EMBEDDED       run an in-process NATS server
	FOCUS_INTERVAL      autoplay step length (default 4s)
	HTTP_PORT           listen port (default 8080)
	LOG_LEVEL           trace..panic (default info)

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
to 10s, the refresh manager abandons in-flight retries, and the event bus
and snapshot store are closed after the tree has stopped.
*/
package main
