// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// NATSServer is an in-process NATS server that is already listening when
// the service is added, like events.EmbeddedServer.
type NATSServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// NATSServerService owns the embedded NATS server's shutdown. The server is
// started before the event bus connects to it, so the service only waits.
type NATSServerService struct {
	server          NATSServer
	shutdownTimeout time.Duration
	name            string
}

// NewNATSServerService wraps server with a 10s shutdown timeout.
func NewNATSServerService(server NATSServer) *NATSServerService {
	return NewNATSServerServiceWithTimeout(server, 10*time.Second)
}

// NewNATSServerServiceWithTimeout wraps server. A non-positive timeout
// means 10s.
func NewNATSServerServiceWithTimeout(server NATSServer, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements suture.Service. A server that is not running cannot be
// restarted from here, so that case asks suture not to retry.
func (s *NATSServerService) Serve(ctx context.Context) error {
	if !s.server.IsRunning() {
		return fmt.Errorf("embedded NATS server is not running: %w", suture.ErrDoNotRestart)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("embedded NATS server shutdown failed: %w", err)
	}
	return ctx.Err()
}

func (s *NATSServerService) String() string {
	return s.name
}
