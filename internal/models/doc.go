// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

// Package models defines the container tracking records exchanged with the
// upstream tracking API and persisted in the cache snapshot.
//
// JSON field names follow the upstream payload verbatim (including its mixed
// snake_case and camelCase), so a record round-trips through the cache
// without loss. Numeric coordinates are pointers because the upstream API
// sends null for unknown positions; conversion to geo.Coordinate turns a
// missing component into NaN, which the geometry layer drops.
//
// The package also carries the presentation metadata the map front end
// needs per leg: transport icons and labels, and polyline styles.
package models
