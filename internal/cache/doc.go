// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

// Package cache holds the durable snapshot of the full container list.
//
// # Model
//
// A Snapshot is the complete, id-ordered container list as last committed
// to a ByteStore. Snapshots are only ever replaced wholesale: Refresh
// fetches the full list from upstream, and on success writes it with a
// whole-value atomic replace. A failed refresh never touches the committed
// snapshot, so Read keeps serving the last good data.
//
// # Backends
//
// ByteStore abstracts the durable store. Three implementations ship:
//
//   - FileStore: a JSON file; temp file, fsync, rename (the default)
//   - BadgerStore: an embedded BadgerDB key
//   - RedisStore: a Redis string key, for deployments running several replicas
//
// # Errors
//
// Expected failure modes are returned as values wrapping one of the
// package's sentinel errors; match them with errors.Is:
//
//	snap, err := c.Read(ctx)
//	if errors.Is(err, cache.ErrEmptyCache) {
//	    // nothing committed yet: "data unavailable", not "zero containers"
//	}
//
// JourneyCache memoizes route projections per snapshot generation so that
// repeated route requests do not recompute geometry.
package cache
