// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cargomap/internal/middleware"
)

// Router builds the HTTP routing tree.
type Router struct {
	handler *Handler
	chi     *ChiMiddleware
}

// NewRouter creates a Router. A nil mw config uses the handler's
// configuration, or DefaultChiMiddlewareConfig without one.
func NewRouter(handler *Handler, mw *ChiMiddlewareConfig) *Router {
	if mw == nil {
		mw = middlewareConfigFrom(handler)
	}
	return &Router{handler: handler, chi: NewChiMiddleware(mw)}
}

func middlewareConfigFrom(h *Handler) *ChiMiddlewareConfig {
	cfg := DefaultChiMiddlewareConfig()
	if h.config == nil {
		return cfg
	}
	sec := h.config.Security
	cfg.CORSAllowedOrigins = sec.CORSOrigins
	cfg.RateLimitRequests = sec.RateLimitReqs
	cfg.RateLimitWindow = sec.RateLimitWindow
	cfg.RateLimitDisabled = sec.RateLimitDisabled
	return cfg
}

// Setup returns the root handler.
//
// Global middleware order: request id, access log, real IP, panic recovery,
// CORS. The /api/v1 group adds rate limiting, security headers, request
// metrics and gzip.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chi.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chi.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chi.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// The upgrade must reach the hijackable writer untouched by gzip.
		r.With(router.chi.RateLimitCustom(RateLimitWebSocket)).Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compression)

			r.Get("/containers", h.ListContainers)
			r.Get("/containers/{id}", h.GetContainer)
			r.Get("/containers/{id}/route", h.GetContainerRoute)
			r.With(router.chi.RateLimitCustom(RateLimitRefresh)).Post("/containers/refresh", h.RefreshContainers)

			r.With(router.chi.RateLimitCustom(RateLimitUpstream)).Get("/container", h.LookupContainer)
			r.With(router.chi.RateLimitCustom(RateLimitUpstream)).Get("/upstream/containers", h.ListUpstreamContainers)

			r.Get("/cache/status", h.CacheStatus)
			r.Get("/focus", h.Focus)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
