// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/cargomap/internal/api"
	"github.com/tomtom215/cargomap/internal/cache"
	"github.com/tomtom215/cargomap/internal/config"
	"github.com/tomtom215/cargomap/internal/events"
	"github.com/tomtom215/cargomap/internal/focus"
	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/models"
	"github.com/tomtom215/cargomap/internal/refresh"
	"github.com/tomtom215/cargomap/internal/supervisor"
	"github.com/tomtom215/cargomap/internal/supervisor/services"
	"github.com/tomtom215/cargomap/internal/upstream"
	ws "github.com/tomtom215/cargomap/internal/websocket"
)

// application holds the wired components. Resources in closers are released
// in reverse order by Close, after the tree has stopped.
type application struct {
	tree    *supervisor.SupervisorTree
	server  *http.Server
	cache   *cache.Cache
	refresh *refresh.Manager
	hub     *ws.Hub
	bus     *events.Bus
	nats    *events.EmbeddedServer

	closers []func() error
}

// newApplication builds every component from cfg and registers the
// long-running ones with a supervisor tree. Nothing is started.
func newApplication(ctx context.Context, cfg *config.Config) (app *application, err error) {
	app = &application{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	store, err := cache.OpenStore(ctx, cache.StoreConfig{
		Backend:       cfg.Cache.Backend,
		Path:          cfg.Cache.Path,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		RedisPrefix:   cfg.Cache.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	app.closers = append(app.closers, store.Close)
	logging.Info().Str("backend", cfg.Cache.Backend).Str("key", cfg.Cache.Key).Msg("Snapshot store opened")

	client := upstream.WrapWithBreaker(upstream.NewClient(upstream.Config{
		BaseURL:    cfg.Upstream.URL,
		APIKey:     cfg.Upstream.APIKey,
		Timeout:    cfg.Upstream.Timeout,
		RateLimit:  cfg.Upstream.RateLimit,
		RateBurst:  cfg.Upstream.RateBurst,
		MaxRetries: cfg.Upstream.MaxRetries,
	}), upstream.BreakerSettings{
		MaxRequests: cfg.Upstream.Breaker.MaxRequests,
		Interval:    cfg.Upstream.Breaker.Interval,
		Timeout:     cfg.Upstream.Breaker.Timeout,
		MinRequests: cfg.Upstream.Breaker.MinRequests,
		FailureRate: cfg.Upstream.Breaker.FailureRate,
	})

	app.cache = cache.New(store, client, cache.Options{Key: cfg.Cache.Key})
	journeys := cache.NewJourneyCache(cfg.Cache.JourneyCacheSize)

	busCfg := events.Config{
		Backend:    cfg.Events.Backend,
		BufferSize: cfg.Events.BufferSize,
		NATS: events.NATSConfig{
			URL:           cfg.Events.NATS.URL,
			MaxReconnects: cfg.Events.NATS.MaxReconnects,
			ReconnectWait: cfg.Events.NATS.ReconnectWait,
		},
	}
	if cfg.Events.Backend == events.BackendNATS && cfg.Events.NATS.Embedded {
		app.nats, err = events.NewEmbeddedServer(events.ServerConfig{
			Host: cfg.Events.NATS.Host,
			Port: cfg.Events.NATS.Port,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		busCfg.NATS.URL = app.nats.ClientURL()
		logging.Info().Str("url", busCfg.NATS.URL).Msg("Embedded NATS server started")
	}

	app.bus, err = events.NewBus(busCfg)
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	app.closers = append(app.closers, app.bus.Close)
	logging.Info().Str("backend", app.bus.Backend()).Msg("Event bus ready")

	app.refresh = refresh.NewManager(app.cache, refresh.Config{
		Interval:      cfg.Refresh.Interval,
		RetryAttempts: cfg.Refresh.RetryAttempts,
		RetryDelay:    cfg.Refresh.RetryDelay,
		OnStartup:     cfg.Refresh.OnStartup,
	})
	app.refresh.SetOnRefreshed(app.bus.OnRefreshed())

	app.hub = ws.NewHub()
	forwarder := events.NewForwarder(app.bus, app.hub)
	broadcaster := focus.NewBroadcaster(snapshotSource(app.cache), app.hub, cfg.Focus.Interval)

	handler := api.NewHandler(api.Deps{
		Cache:    app.cache,
		Refresh:  app.refresh,
		Upstream: client,
		Focus:    broadcaster,
		Journeys: journeys,
		Hub:      app.hub,
		Config:   cfg,
	})

	app.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, nil).Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	app.tree, err = supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}

	if app.nats != nil {
		app.tree.AddDataService(services.NewNATSServerService(app.nats))
	}

	app.tree.AddMessagingService(services.NewWebSocketHubService(app.hub))
	app.tree.AddMessagingService(services.NewRefreshService(app.refresh))
	app.tree.AddMessagingService(forwarder)
	app.tree.AddMessagingService(broadcaster)

	app.tree.AddAPIService(services.NewHTTPServerService(app.server, 10*time.Second))

	return app, nil
}

// snapshotSource feeds the focus cycle from the committed snapshot.
func snapshotSource(c *cache.Cache) focus.Source {
	return focus.SourceFunc(func(ctx context.Context) ([]models.ContainerRecord, error) {
		snap, err := c.Read(ctx)
		if err != nil {
			return nil, err
		}
		return snap.Containers, nil
	})
}

// Close releases the bus and the store. The embedded NATS server is owned by
// its supervisor service, but is shut down here when the tree never ran.
func (app *application) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil

	if app.nats != nil && app.nats.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.nats.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
