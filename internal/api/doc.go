// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package api provides the HTTP interface of Cargomap.

Handlers serve the cached container snapshot, projected routes, the autoplay
focus cycle and live upstream lookups, and accept WebSocket subscribers for
refresh and focus events. Routing uses chi v5.

# Endpoints

	GET  /api/v1/health/live          liveness
	GET  /api/v1/health/ready         200 once a snapshot is committed, else 503
	GET  /api/v1/containers           cached snapshot
	GET  /api/v1/containers/{id}      one cached record
	GET  /api/v1/containers/{id}/route projection, pin and leg styles
	POST /api/v1/containers/refresh   manual refresh
	GET  /api/v1/container?number=   live upstream lookup
	GET  /api/v1/upstream/containers  live upstream list
	GET  /api/v1/cache/status         cache state and schedule
	GET  /api/v1/focus?step=          autoplay frame
	GET  /api/v1/ws                   WebSocket
	GET  /metrics                     Prometheus

# Response Format

Every API response uses the APIResponse envelope:

	{
	  "success": true,
	  "data": [...],
	  "meta": {"request_id": "...", "timestamp": "...", "count": 12}
	}

Errors carry a machine-readable code:

	{
	  "success": false,
	  "error": {"code": "DATA_UNAVAILABLE", "message": "...", "request_id": "..."}
	}

DATA_UNAVAILABLE (503) means no snapshot has been committed and one
synchronous refresh attempt by the list or by-id handler failed. A committed
snapshot with zero containers is a 200 with an empty list.
*/
package api
