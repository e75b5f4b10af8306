// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package supervisor provides process supervision for Cargomap using suture v4.

Long-running components are grouped into three child supervisors so that a
failure in one layer is restarted without disturbing the others:

	cargomap
	├── data-layer
	│   └── NATSServerService (when the embedded NATS server is enabled)
	├── messaging-layer
	│   ├── WebSocketHubService
	│   ├── RefreshService
	│   ├── events.Forwarder
	│   └── focus.Broadcaster
	└── api-layer
	    └── HTTPServerService

Usage:

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

Supervisor events (service start, failure, backoff, stop timeout) are
logged through slog via sutureslog; cmd/server passes a logger built with
logging.NewComponentSlogLogger so they land in the zerolog stream.

The failure counter decays exponentially: FailureThreshold failures within
roughly FailureDecay seconds put the supervisor into FailureBackoff before
it restarts the service again.
*/
package supervisor
