// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/cargomap/internal/focus"
)

// FocusResponse is the body of GET /focus. Epoch and IntervalMs let a client
// derive later steps itself and stay in phase with pushed frames.
type FocusResponse struct {
	focus.State
	Epoch      time.Time `json:"epoch"`
	IntervalMs int64     `json:"interval_ms"`
}

// Focus returns the autoplay frame for ?step=, or for the current instant
// when step is omitted. Negative steps wrap around the cycle.
func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	epoch, interval := h.startTime, focus.DefaultInterval
	if h.focus != nil {
		epoch, interval = h.focus.Epoch(), h.focus.Interval()
	}

	var (
		st focus.State
		ok bool
	)
	if raw := r.URL.Query().Get("step"); raw != "" {
		step, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			rw.BadRequest("step must be an integer")
			return
		}
		snap, err := h.cache.Read(r.Context())
		if err != nil {
			rw.DataUnavailable("Container data is not available yet")
			return
		}
		st, ok = focus.At(snap.Containers, step)
	} else if h.focus != nil {
		var err error
		st, ok, err = h.focus.Current(r.Context())
		if err != nil {
			rw.DataUnavailable("Container data is not available yet")
			return
		}
	} else {
		snap, err := h.cache.Read(r.Context())
		if err != nil {
			rw.DataUnavailable("Container data is not available yet")
			return
		}
		st, ok = focus.At(snap.Containers, focus.StepAt(time.Now(), epoch, interval))
	}

	if !ok {
		rw.NotFound("No containers to focus on")
		return
	}
	rw.Success(FocusResponse{State: st, Epoch: epoch, IntervalMs: interval.Milliseconds()})
}
