// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package middleware provides HTTP middleware for the Cargomap API.

All middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: X-Request-ID propagation and logging context
  - AccessLog: one structured log line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip for clients that accept it

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(middleware.Compression)
	    r.Get("/containers", h.ListContainers)
	})

The wrapped response writers forward http.Hijacker, so the WebSocket
endpoint can sit behind RequestID and PrometheusMetrics.
*/
package middleware
