// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/metrics"
	"github.com/tomtom215/cargomap/internal/models"
)

// DefaultKey is the store key of the container snapshot.
const DefaultKey = "containers.json"

// Fetcher returns the full upstream container list.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.ContainerRecord, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]models.ContainerRecord, error)

// FetchAll calls f.
func (f FetcherFunc) FetchAll(ctx context.Context) ([]models.ContainerRecord, error) {
	return f(ctx)
}

// State is the observable lifecycle state of the cache.
type State string

const (
	StateEmpty          State = "empty"
	StateValid          State = "valid"
	StateRefreshing     State = "refreshing"
	StateValidWithError State = "valid_with_error"
)

// Result is the outcome of one Refresh.
type Result struct {
	Success  bool          `json:"success"`
	Count    int           `json:"count"`
	Err      error         `json:"-"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Status summarizes the cache for health checks and the status endpoint.
type Status struct {
	State       State     `json:"state"`
	RecordCount int       `json:"record_count"`
	Generation  string    `json:"generation,omitempty"`
	WrittenAt   time.Time `json:"written_at,omitempty"`
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Options configures a Cache.
type Options struct {
	// Key is the store key, default DefaultKey.
	Key string

	// Now is the clock, default time.Now.
	Now func() time.Time
}

// Cache serves the committed snapshot and refreshes it from upstream.
// All methods are safe for concurrent use.
type Cache struct {
	store   ByteStore
	fetcher Fetcher
	key     string
	now     func() time.Time
	logger  zerolog.Logger

	// writeMu serializes encode+commit so one writer commits per generation.
	writeMu sync.Mutex

	mu          sync.RWMutex
	memo        *Snapshot
	lastAttempt time.Time
	lastSuccess time.Time
	lastErr     error

	inflight atomic.Int32
}

// New creates a Cache over store, refreshing from fetcher.
func New(store ByteStore, fetcher Fetcher, opts Options) *Cache {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:   store,
		fetcher: fetcher,
		key:     opts.Key,
		now:     opts.Now,
		logger:  logging.WithComponent("cache"),
	}
}

// Read returns the last committed snapshot without touching the network.
// It fails with ErrEmptyCache when nothing has been committed or the
// committed bytes cannot be read or parsed.
func (c *Cache) Read(ctx context.Context) (*Snapshot, error) {
	data, err := c.store.Read(ctx, c.key)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrEmptyCache
	}
	if err != nil {
		metrics.CacheReadErrors.Inc()
		return nil, fmt.Errorf("%w: %w", ErrEmptyCache, err)
	}

	gen := generationOf(data)
	c.mu.RLock()
	memo := c.memo
	c.mu.RUnlock()
	if memo != nil && memo.Generation == gen {
		return memo, nil
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		metrics.CacheReadErrors.Inc()
		return nil, fmt.Errorf("%w: %w", ErrEmptyCache, err)
	}

	c.mu.Lock()
	c.memo = snap
	c.mu.Unlock()
	metrics.CacheRecords.Set(float64(snap.Len()))
	return snap, nil
}

// ReadOrRefresh reads the snapshot and, when the cache is empty, attempts
// one synchronous refresh before giving up.
func (c *Cache) ReadOrRefresh(ctx context.Context) (*Snapshot, error) {
	snap, err := c.Read(ctx)
	if !errors.Is(err, ErrEmptyCache) {
		return snap, err
	}

	res := c.Refresh(ctx)
	if !res.Success {
		return nil, fmt.Errorf("%w: refresh: %w", ErrEmptyCache, res.Err)
	}
	return c.Read(ctx)
}

// Refresh fetches the full upstream list and commits it as the new
// snapshot. On any failure the committed snapshot is left untouched.
//
// Refresh does not deduplicate concurrent calls; overlapping refreshes each
// commit a complete snapshot and the last commit wins.
func (c *Cache) Refresh(ctx context.Context) Result {
	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	res := Result{Started: c.now()}
	c.mu.Lock()
	c.lastAttempt = res.Started
	c.mu.Unlock()

	log := logging.Ctx(ctx).With().Str("component", "cache").Logger()

	count, outcome, err := c.refresh(ctx)
	res.Duration = c.now().Sub(res.Started)
	metrics.CacheRefreshDuration.Observe(res.Duration.Seconds())
	metrics.CacheRefreshTotal.WithLabelValues(outcome).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		res.Err = err
		c.lastErr = err
		log.Warn().Err(err).Str("outcome", outcome).Msg("Cache refresh failed, keeping previous snapshot")
		return res
	}

	res.Success = true
	res.Count = count
	c.lastErr = nil
	c.lastSuccess = res.Started
	metrics.CacheLastSuccessTimestamp.Set(float64(res.Started.Unix()))
	metrics.CacheRecords.Set(float64(count))
	log.Info().Int("containers", count).Dur("duration", res.Duration).Msg("Cache refreshed")
	return res
}

func (c *Cache) refresh(ctx context.Context) (int, string, error) {
	records, err := c.fetcher.FetchAll(ctx)
	if err != nil {
		return 0, "upstream_error", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if len(records) == 0 {
		return 0, "empty_payload", ErrEmptyPayload
	}

	sorted := make([]models.ContainerRecord, len(records))
	copy(sorted, records)
	models.SortByID(sorted)

	snap := &Snapshot{WrittenAt: c.now().UTC(), Containers: sorted}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return 0, "encode_error", fmt.Errorf("encode snapshot: %w", err)
	}
	snap.Generation = generationOf(data)

	c.writeMu.Lock()
	err = c.store.WriteAtomic(ctx, c.key, data)
	if err == nil {
		c.mu.Lock()
		c.memo = snap
		c.mu.Unlock()
	}
	c.writeMu.Unlock()
	if err != nil {
		return 0, "write_error", fmt.Errorf("commit snapshot: %w", err)
	}
	return len(sorted), "success", nil
}

// Status reports the cache state. A refresh in flight takes precedence over
// every other state; otherwise the state follows the committed snapshot and
// the outcome of the most recent refresh.
func (c *Cache) Status(ctx context.Context) Status {
	snap, readErr := c.Read(ctx)

	c.mu.RLock()
	st := Status{
		LastAttempt: c.lastAttempt,
		LastSuccess: c.lastSuccess,
	}
	lastErr := c.lastErr
	c.mu.RUnlock()

	if lastErr != nil {
		st.LastError = lastErr.Error()
	}
	if readErr == nil {
		st.RecordCount = snap.Len()
		st.Generation = snap.Generation
		st.WrittenAt = snap.WrittenAt
	}

	switch {
	case c.inflight.Load() > 0:
		st.State = StateRefreshing
	case readErr != nil:
		st.State = StateEmpty
	case lastErr != nil:
		st.State = StateValidWithError
	default:
		st.State = StateValid
	}
	return st
}
