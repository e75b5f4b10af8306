// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

/*
Package refresh drives periodic container cache refreshes.

Manager follows the Start/Stop lifecycle used by the supervised services: Start
kicks off an initial refresh in the background and a ticker loop, Stop closes
the loop and waits for in-flight work.

Thread Safety:
  - refreshMu: one refresh at a time, scheduled or manual
  - mu: protects running, lastAttempt, lastSuccess, startedAt and the callback
*/
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cargomap/internal/cache"
	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/metrics"
)

// ErrRefreshInProgress is returned by TriggerRefresh while another refresh runs.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Refresher is the cache operation the manager schedules.
type Refresher interface {
	Refresh(ctx context.Context) cache.Result
}

// Config controls scheduling and retries.
type Config struct {
	Interval      time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStartup     bool
}

// DefaultConfig refreshes at startup and then hourly.
func DefaultConfig() Config {
	return Config{
		Interval:      time.Hour,
		RetryAttempts: 3,
		RetryDelay:    5 * time.Second,
		OnStartup:     true,
	}
}

// Manager schedules cache refreshes.
type Manager struct {
	refresher Refresher
	cfg       Config
	now       func() time.Time
	logger    zerolog.Logger

	refreshMu sync.Mutex

	mu          sync.RWMutex
	running     bool
	startedAt   time.Time
	lastAttempt time.Time
	lastSuccess time.Time
	onRefreshed func(cache.Result)

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a manager for refresher. Zero config fields fall back to
// DefaultConfig.
func NewManager(refresher Refresher, cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}

	m := &Manager{
		refresher: refresher,
		cfg:       cfg,
		now:       time.Now,
		logger:    logging.WithComponent("refresh"),
	}

	m.logger.Info().
		Dur("interval", cfg.Interval).
		Int("retry_attempts", cfg.RetryAttempts).
		Dur("retry_delay", cfg.RetryDelay).
		Bool("on_startup", cfg.OnStartup).
		Msg("Refresh manager config loaded")

	return m
}

// SetOnRefreshed registers a callback invoked after every refresh attempt,
// scheduled or manual.
func (m *Manager) SetOnRefreshed(callback func(cache.Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRefreshed = callback
}

// Start begins periodic refreshing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("refresh manager is already running")
	}
	m.running = true
	m.startedAt = m.now()
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	m.logger.Info().Msg("Starting refresh manager...")

	if m.cfg.OnStartup {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.scheduledRefresh(ctx)
		}()
	}

	m.wg.Add(1)
	go m.refreshLoop(ctx)

	return nil
}

// Stop ends the loop and waits for in-flight refreshes.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("refresh manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info().Msg("Stopping refresh manager...")
	close(m.stopChan)
	m.wg.Wait()
	m.logger.Info().Msg("Refresh manager stopped")
	return nil
}

// TriggerRefresh runs one refresh attempt now, without retries. It returns
// ErrRefreshInProgress instead of queueing behind a running refresh.
func (m *Manager) TriggerRefresh(ctx context.Context) (cache.Result, error) {
	if !m.refreshMu.TryLock() {
		return cache.Result{}, ErrRefreshInProgress
	}
	defer m.refreshMu.Unlock()

	res := m.attempt(ctx)
	m.notify(res)
	return res, res.Err
}

// LastRefresh returns the time of the last attempt, successful or not.
func (m *Manager) LastRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAttempt
}

// LastSuccess returns the time of the last successful refresh.
func (m *Manager) LastSuccess() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSuccess
}

// NextRefresh estimates the next scheduled refresh. It is zero when the
// manager has not been started.
func (m *Manager) NextRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case !m.lastAttempt.IsZero():
		return m.lastAttempt.Add(m.cfg.Interval)
	case !m.startedAt.IsZero():
		return m.startedAt.Add(m.cfg.Interval)
	default:
		return time.Time{}
	}
}

// Interval returns the configured refresh interval.
func (m *Manager) Interval() time.Duration {
	return m.cfg.Interval
}

func (m *Manager) refreshLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.scheduledRefresh(ctx)
		}
	}
}

// scheduledRefresh runs a refresh with retries, skipping the tick when a
// manual refresh holds the lock.
func (m *Manager) scheduledRefresh(ctx context.Context) {
	if !m.refreshMu.TryLock() {
		m.logger.Debug().Msg("Refresh already running, skipping tick")
		return
	}
	defer m.refreshMu.Unlock()

	ctx, cancel := m.stopAwareContext(ctx)
	defer cancel()

	res := m.retryWithBackoff(ctx)
	if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
		m.logger.Error().Err(res.Err).Msg("Scheduled refresh failed")
	}
}

// retryWithBackoff retries failed attempts with exponential backoff. An empty
// upstream payload is not retried.
func (m *Manager) retryWithBackoff(ctx context.Context) cache.Result {
	var res cache.Result
	delay := m.cfg.RetryDelay

	for attempt := 0; attempt < m.cfg.RetryAttempts; attempt++ {
		if ctx.Err() != nil {
			return cache.Result{Err: ctx.Err()}
		}

		res = m.attempt(ctx)
		m.notify(res)
		if res.Success || errors.Is(res.Err, cache.ErrEmptyPayload) {
			return res
		}

		if attempt < m.cfg.RetryAttempts-1 {
			m.logger.Warn().Err(res.Err).
				Int("attempt", attempt+1).
				Int("max_attempts", m.cfg.RetryAttempts).
				Dur("delay", delay).
				Msg("Retry attempt")
			metrics.RefreshRetries.Inc()

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return cache.Result{Err: ctx.Err()}
			}
			delay *= 2
		}
	}

	return res
}

func (m *Manager) attempt(ctx context.Context) cache.Result {
	res := m.refresher.Refresh(ctx)

	m.mu.Lock()
	m.lastAttempt = m.now()
	if res.Success {
		m.lastSuccess = m.lastAttempt
	}
	m.mu.Unlock()

	return res
}

func (m *Manager) notify(res cache.Result) {
	m.mu.RLock()
	cb := m.onRefreshed
	m.mu.RUnlock()
	if cb != nil {
		cb(res)
	}
}

// stopAwareContext derives a context that is also cancelled by Stop.
func (m *Manager) stopAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	m.mu.RLock()
	stop := m.stopChan
	m.mu.RUnlock()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
