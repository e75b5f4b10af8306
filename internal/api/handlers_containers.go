// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cargomap/internal/cache"
	"github.com/tomtom215/cargomap/internal/geo"
	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/models"
	"github.com/tomtom215/cargomap/internal/upstream"
	"github.com/tomtom215/cargomap/internal/validation"
)

const upstreamServiceName = "tracking-api"

// ContainerLookupRequest is the query of GET /container.
type ContainerLookupRequest struct {
	Number string `query:"number" validate:"required,container_number"`
}

// LegView is one leg of a route with its display metadata.
type LegView struct {
	Index         int                  `json:"index"`
	Category      string               `json:"category"`
	TransportType models.TransportType `json:"transport_type"`
	Transport     models.TransportInfo `json:"transport"`
	Style         models.LineStyle     `json:"style"`
	From          string               `json:"from"`
	To            string               `json:"to"`
}

// PinView is the live position with the transport it is travelling on.
type PinView struct {
	Position  geo.Coordinate        `json:"position"`
	LegIndex  int                   `json:"leg_index"`
	Icon      string                `json:"icon"`
	Transport *models.TransportInfo `json:"transport,omitempty"`
}

// RouteView is the body of GET /containers/{id}/route.
type RouteView struct {
	ContainerID int64          `json:"container_id"`
	Number      string         `json:"number"`
	Projection  geo.Projection `json:"projection"`
	Pin         *PinView       `json:"pin,omitempty"`
	Legs        []LegView      `json:"legs"`
}

// ListContainers serves the cached snapshot. An empty cache gets one
// refresh attempt; if that fails it is a 503, unlike a committed snapshot
// with no containers.
func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	snap, err := h.cache.ReadOrRefresh(r.Context())
	if err != nil {
		rw.DataUnavailable("Container data is not available yet")
		return
	}

	rw.SuccessWithMeta(snap.Containers, &APIMeta{
		Count:      intPtr(snap.Len()),
		Generation: snap.Generation,
	})
}

// GetContainer serves one cached record by id.
func (h *Handler) GetContainer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	snap, rec, ok := h.lookupCached(rw, r)
	if !ok {
		return
	}
	rw.SuccessWithMeta(rec, &APIMeta{Generation: snap.Generation})
}

// GetContainerRoute serves the projected route of a cached container with
// its placed pin and per-leg display metadata.
func (h *Handler) GetContainerRoute(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	snap, rec, ok := h.lookupCached(rw, r)
	if !ok {
		return
	}

	var journey geo.Journey
	if h.journeys != nil {
		journey = h.journeys.GetOrCompute(snap.Generation, rec.ID, rec.Journey)
	} else {
		journey = rec.Journey()
	}

	rw.SuccessWithMeta(buildRouteView(rec, journey), &APIMeta{Generation: snap.Generation})
}

func buildRouteView(rec *models.ContainerRecord, journey geo.Journey) RouteView {
	view := RouteView{
		ContainerID: rec.ID,
		Number:      rec.Metadata.Number,
		Projection:  journey.Projection,
		Legs:        make([]LegView, len(rec.RouteData.RouteInfo)),
	}

	for i, leg := range rec.RouteData.RouteInfo {
		view.Legs[i] = LegView{
			Index:         i,
			Category:      leg.Type,
			TransportType: leg.TransportType,
			Transport:     leg.TransportType.Details(),
			Style:         models.RouteStyle(leg.Type, i),
			From:          leg.From.Name,
			To:            leg.To.Name,
		}
	}

	if journey.Pin != nil {
		pin := &PinView{
			Position: *journey.Pin,
			LegIndex: journey.LegIndex,
			Icon:     models.PinFallbackIcon,
		}
		if t := rec.PinTransport(journey.LegIndex); t != "" {
			info := t.Details()
			pin.Icon = info.Icon
			pin.Transport = &info
		}
		view.Pin = pin
	}
	return view
}

// lookupCached resolves {id} against the snapshot, writing the error
// response itself when it fails.
func (h *Handler) lookupCached(rw *ResponseWriter, r *http.Request) (*cache.Snapshot, *models.ContainerRecord, bool) {
	id, ok := containerIDParam(r)
	if !ok {
		rw.BadRequest("Container id must be a non-negative integer")
		return nil, nil, false
	}

	snap, err := h.cache.ReadOrRefresh(r.Context())
	if err != nil {
		rw.DataUnavailable("Container data is not available yet")
		return nil, nil, false
	}

	rec, found := snap.Find(id)
	if !found {
		rw.NotFound("Container not found")
		return nil, nil, false
	}
	return snap, rec, true
}

// LookupContainer proxies a lookup by container number to upstream. It
// never reads or writes the cache.
func (h *Handler) LookupContainer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := ContainerLookupRequest{Number: strings.TrimSpace(r.URL.Query().Get("number"))}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	if h.upstream == nil {
		rw.ServiceUnavailable("Upstream lookups are not configured")
		return
	}

	rec, err := h.upstream.FetchByNumber(r.Context(), req.Number)
	if err != nil {
		h.writeUpstreamError(rw, r, err)
		return
	}
	rw.Success(rec)
}

// ListUpstreamContainers proxies the full upstream list without caching it.
func (h *Handler) ListUpstreamContainers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.upstream == nil {
		rw.ServiceUnavailable("Upstream lookups are not configured")
		return
	}

	records, err := h.upstream.FetchAll(r.Context())
	if err != nil {
		h.writeUpstreamError(rw, r, err)
		return
	}
	if records == nil {
		records = []models.ContainerRecord{}
	}
	rw.SuccessWithMeta(records, &APIMeta{Count: intPtr(len(records))})
}

func (h *Handler) writeUpstreamError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upstream.ErrContainerNotFound):
		rw.NotFound("Container not found upstream")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Upstream call rejected by circuit breaker")
		rw.ServiceUnavailable("Tracking API temporarily unavailable")
	default:
		rw.ExternalServiceError(upstreamServiceName, err)
	}
}
