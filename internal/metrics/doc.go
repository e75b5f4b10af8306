// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package metrics provides Prometheus metrics for Cargomap.

Metrics are registered with the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API:
  - cargomap_api_requests_total{method, endpoint, status_code}
  - cargomap_api_request_duration_seconds{method, endpoint}
  - cargomap_api_active_requests

Container cache:
  - cargomap_cache_refresh_total{outcome}
  - cargomap_cache_refresh_duration_seconds
  - cargomap_cache_last_success_timestamp_seconds
  - cargomap_cache_records
  - cargomap_cache_read_errors_total
  - cargomap_journey_cache_lookups_total{result}

Upstream and resilience:
  - cargomap_upstream_requests_total{operation, status}
  - cargomap_upstream_request_duration_seconds{operation}
  - cargomap_refresh_retries_total
  - cargomap_circuit_breaker_* {name}

Live updates:
  - cargomap_websocket_connections
  - cargomap_websocket_messages_sent_total
  - cargomap_websocket_broadcast_drops_total
  - cargomap_events_published_total{topic, result}
  - cargomap_events_forwarded_total{topic}

A useful alert is a stale snapshot:

	time() - cargomap_cache_last_success_timestamp_seconds > 3 * 3600
*/
package metrics
