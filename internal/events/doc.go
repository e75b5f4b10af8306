// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package events fans refresh outcomes out over a watermill message bus.

Every refresh attempt publishes one RefreshEvent:

	containers.refreshed        a new snapshot was committed
	containers.refresh_failed   the attempt failed, the old snapshot stands

Backends:

  - gochannel (default): in-process, nothing to deploy
  - nats: core NATS subjects through watermill-nats, either against an
    external server or an EmbeddedServer started by the process

JetStream is not used. Refresh events are notifications, not a log: a
dashboard that misses one catches up on the next refresh or on reload.

The Forwarder subscribes to both topics and relays them to WebSocket
clients, so with the NATS backend every replica's dashboards see refreshes
performed by any replica.
*/
package events
