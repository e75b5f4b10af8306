// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cargomap/internal/cache"
)

// LivenessStatus is the body of the liveness probe.
type LivenessStatus struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

// ReadinessStatus is the body of the readiness probe.
type ReadinessStatus struct {
	Ready        bool        `json:"ready"`
	CacheState   cache.State `json:"cache_state"`
	RecordCount  int         `json:"record_count"`
	Breaker      string      `json:"circuit_breaker,omitempty"`
	ClientsCount int         `json:"websocket_clients"`
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, LivenessStatus{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports 200 once a snapshot is committed and 503 before that.
// A failed last refresh does not make the service unready; stale data is
// still served.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	st := h.cache.Status(r.Context())

	ready := st.RecordCount > 0 || st.Generation != ""
	body := ReadinessStatus{
		Ready:       ready,
		CacheState:  st.State,
		RecordCount: st.RecordCount,
	}
	if b, ok := h.upstream.(BreakerState); ok {
		body.Breaker = b.State()
	}
	if h.wsHub != nil {
		body.ClientsCount = h.wsHub.GetClientCount()
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).SuccessWithStatus(status, body)
}
