// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package websocket pushes live updates to dashboards over gorilla/websocket.

A Hub owns the set of connected clients; each Client runs a read pump and a
write pump. Frames are JSON envelopes:

	{"type": "refresh_completed", "data": {"count": 42, "duration_ms": 812, ...}}

Server to client:
  - refresh_completed: a new snapshot was committed, reload /api/v1/containers
  - refresh_failed: the refresh failed and the previous snapshot is still served
  - focus: the current autoplay frame (see package focus)
  - pong: reply to a client ping

Client to server:
  - ping

Broadcasts never block the caller. When the hub queue is full the message is
dropped; when a client's queue is full the client is disconnected. Both are
counted in cargomap_websocket_broadcast_drops_total.

The hub runs under the supervisor via RunWithContext and closes every client
when its context ends.
*/
package websocket
