// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package upstream is the HTTP client for the container tracking REST API.

Two endpoints are used:

	GET {base}/DataEntity                          full container list
	GET {base}/DataEntity/ContainerNumber/{number} one container

Client performs the calls. Outbound requests are paced by an optional
token-bucket limiter and HTTP 429 responses are retried with exponential
backoff, honouring Retry-After. Any other non-200 status is returned as a
*StatusError carrying the code and up to 64 KiB of the response body.

CircuitBreakerClient wraps Client with sony/gobreaker. The breaker opens once
at least 10 requests in a one minute window have failed at a rate of 60% or
more, then probes again after two minutes:

	client := upstream.NewCircuitBreakerClient(upstream.Config{
		BaseURL: "http://tracking.example:8080",
		Timeout: 30 * time.Second,
	})
	records, err := client.FetchAll(ctx)

Both types satisfy cache.Fetcher.
*/
package upstream
