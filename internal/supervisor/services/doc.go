// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

// Package services adapts Cargomap's long-running components to
// suture.Service so the supervisor tree can restart and stop them.
//
// Components that already expose Serve(ctx) error, such as the event
// forwarder and the focus broadcaster, are added to the tree directly.
//
//	tree.AddDataService(services.NewNATSServerService(natsServer))
//	tree.AddMessagingService(services.NewWebSocketHubService(hub))
//	tree.AddMessagingService(services.NewRefreshService(refreshMgr))
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
package services
