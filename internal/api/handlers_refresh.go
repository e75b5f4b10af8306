// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/cargomap/internal/cache"
	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/refresh"
)

// RefreshResponse is the body of a successful manual refresh.
type RefreshResponse struct {
	Count      int       `json:"count"`
	Started    time.Time `json:"started"`
	DurationMs int64     `json:"duration_ms"`
}

// CacheStatusResponse is the body of GET /cache/status.
type CacheStatusResponse struct {
	cache.Status
	NextRefresh     *time.Time `json:"next_refresh,omitempty"`
	RefreshInterval string     `json:"refresh_interval,omitempty"`
}

// RefreshContainers runs one refresh now. A refresh already running answers
// 409 rather than queueing.
func (h *Handler) RefreshContainers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.refresh == nil {
		rw.ServiceUnavailable("Refresh is not configured")
		return
	}

	res, err := h.refresh.TriggerRefresh(r.Context())
	switch {
	case err == nil:
		rw.Success(RefreshResponse{
			Count:      res.Count,
			Started:    res.Started,
			DurationMs: res.Duration.Milliseconds(),
		})
	case errors.Is(err, refresh.ErrRefreshInProgress):
		rw.Conflict("A refresh is already in progress")
	case errors.Is(err, cache.ErrEmptyPayload):
		logging.Ctx(r.Context()).Warn().Msg("Manual refresh rejected an empty upstream payload")
		rw.Error(http.StatusUnprocessableEntity, ErrCodeEmptyPayload, "Upstream returned no containers; previous data kept")
	default:
		rw.ExternalServiceError(upstreamServiceName, err)
	}
}

// CacheStatus reports the cache state and the next scheduled refresh.
func (h *Handler) CacheStatus(w http.ResponseWriter, r *http.Request) {
	resp := CacheStatusResponse{Status: h.cache.Status(r.Context())}
	if h.refresh != nil {
		if next := h.refresh.NextRefresh(); !next.IsZero() {
			resp.NextRefresh = &next
		}
		resp.RefreshInterval = h.refresh.Interval().String()
	}
	WriteSuccess(w, r, resp)
}
