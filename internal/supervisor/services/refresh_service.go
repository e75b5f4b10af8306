// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package services

import (
	"context"
	"fmt"
)

// StartStopManager is a component that starts background work and stops it
// synchronously, like refresh.Manager.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// RefreshService adapts the periodic refresh manager to suture.Service.
type RefreshService struct {
	manager StartStopManager
	name    string
}

// NewRefreshService wraps manager.
func NewRefreshService(manager StartStopManager) *RefreshService {
	return &RefreshService{
		manager: manager,
		name:    "refresh-manager",
	}
}

// Serve starts the manager, waits for ctx to end, then stops it. Stop
// blocks until the refresh loop has exited.
func (s *RefreshService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("refresh manager start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("refresh manager stop failed: %w", err)
	}
	return ctx.Err()
}

func (s *RefreshService) String() string {
	return s.name
}
