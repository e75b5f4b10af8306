// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

// Package geo holds the antimeridian-safe route geometry used by Cargomap.
//
// Every function in this package is pure and safe for concurrent use. The
// package never wraps a longitude back into [-180, 180] unless asked to
// (NormalizeLongitude); routes are instead "unwrapped" into a continuous
// longitude space so that a map library draws a trans-Pacific leg as a short
// arc across the antimeridian rather than a line across the whole world.
//
// # Components
//
//   - Unwrap: removes ±360° jumps between consecutive points of one polyline
//   - ResolveNearestCopy: picks the world copy of a longitude nearest a reference
//   - Project: turns a container's legs into drawable lines plus start/end points
//   - PlacePin: moves the live position onto the same world copy as its route
//   - Classify: finds which leg the live position is travelling on
//
// # Malformed input
//
// Points with NaN or infinite components, or a latitude outside [-90, 90],
// are dropped by Sanitize before any other step sees them. Callers can learn
// how many points were dropped from Projection.Dropped.
package geo
