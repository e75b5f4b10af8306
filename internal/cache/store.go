// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package cache

import (
	"context"
	"fmt"
)

// ByteStore is a durable key-value byte store with whole-value atomic
// replace. Implementations must guarantee that a concurrent Read observes
// either the previous value or the new one, never a mix.
type ByteStore interface {
	// Exists reports whether key has a committed value.
	Exists(ctx context.Context, key string) (bool, error)

	// Read returns the committed value of key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// WriteAtomic replaces the value of key in one step.
	WriteAtomic(ctx context.Context, key string, data []byte) error

	// Close releases the store's resources.
	Close() error
}

// Store backend names.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// StoreConfig selects and configures a ByteStore backend.
type StoreConfig struct {
	Backend string

	// Path is the directory for the file and badger backends.
	Path string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// OpenStore opens the backend named by cfg.Backend.
func OpenStore(ctx context.Context, cfg StoreConfig) (ByteStore, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path)
	case BackendBadger:
		return NewBadgerStore(cfg.Path)
	case BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
