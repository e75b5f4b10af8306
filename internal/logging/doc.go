// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

// Package logging provides centralized zerolog-based logging for Cargomap.
//
// The package exposes a global logger configured once from main, plus:
//
//   - JSON output for production, console output for development
//   - Optional rotating file output (lumberjack) alongside stderr
//   - Context-aware logging with request and correlation IDs
//   - An slog.Handler adapter for libraries that expect *slog.Logger
//     (suture supervision, watermill)
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Int("containers", n).Msg("Cache refreshed")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Upstream unavailable")
//
// Always terminate log chains with .Msg() or .Send(); an unterminated chain
// emits nothing.
package logging
