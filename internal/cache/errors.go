// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package cache

import "errors"

var (
	// ErrEmptyCache means no snapshot has been committed yet, or the
	// committed bytes cannot be read or parsed.
	ErrEmptyCache = errors.New("cache empty")

	// ErrUpstreamUnavailable means the upstream fetch failed or returned a
	// non-success status.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrEmptyPayload means the upstream fetch succeeded but returned zero
	// records. Such a payload is treated as suspect and is not written.
	ErrEmptyPayload = errors.New("upstream returned no containers")

	// ErrNotFound is returned by ByteStore.Read for a missing key.
	ErrNotFound = errors.New("key not found")

	// ErrUnknownBackend is returned by OpenStore for an unsupported backend.
	ErrUnknownBackend = errors.New("unknown cache backend")
)
