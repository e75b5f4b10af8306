// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/cargomap/internal/cache"
	"github.com/tomtom215/cargomap/internal/config"
	"github.com/tomtom215/cargomap/internal/focus"
	"github.com/tomtom215/cargomap/internal/geo"
	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/models"
	ws "github.com/tomtom215/cargomap/internal/websocket"
)

// SnapshotReader serves the committed container snapshot. ReadOrRefresh
// makes one synchronous refresh attempt when nothing is committed yet.
type SnapshotReader interface {
	Read(ctx context.Context) (*cache.Snapshot, error)
	ReadOrRefresh(ctx context.Context) (*cache.Snapshot, error)
	Status(ctx context.Context) cache.Status
}

// RefreshTrigger runs manual refreshes and reports the schedule.
type RefreshTrigger interface {
	TriggerRefresh(ctx context.Context) (cache.Result, error)
	NextRefresh() time.Time
	Interval() time.Duration
}

// UpstreamClient is the live tracking API.
type UpstreamClient interface {
	FetchAll(ctx context.Context) ([]models.ContainerRecord, error)
	FetchByNumber(ctx context.Context, number string) (*models.ContainerRecord, error)
}

// BreakerState reports the upstream circuit breaker state. It is optional.
type BreakerState interface {
	State() string
}

// FocusClock computes the wall-clock autoplay frame.
type FocusClock interface {
	Current(ctx context.Context) (focus.State, bool, error)
	Epoch() time.Time
	Interval() time.Duration
}

// JourneyComputer memoizes route projections per snapshot generation.
type JourneyComputer interface {
	GetOrCompute(generation string, id int64, compute func() geo.Journey) geo.Journey
}

// Deps are the collaborators a Handler serves from. Cache is required;
// endpoints whose collaborator is nil answer 503.
type Deps struct {
	Cache    SnapshotReader
	Refresh  RefreshTrigger
	Upstream UpstreamClient
	Focus    FocusClock
	Journeys JourneyComputer
	Hub      *ws.Hub
	Config   *config.Config
}

// Handler holds the HTTP handlers of the API.
type Handler struct {
	cache     SnapshotReader
	refresh   RefreshTrigger
	upstream  UpstreamClient
	focus     FocusClock
	journeys  JourneyComputer
	wsHub     *ws.Hub
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		cache:     deps.Cache,
		refresh:   deps.Refresh,
		upstream:  deps.Upstream,
		focus:     deps.Focus,
		journeys:  deps.Journeys,
		wsHub:     deps.Hub,
		config:    deps.Config,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins. Browsers always send Origin, so an empty one is
// rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
