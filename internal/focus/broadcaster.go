// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package focus

import (
	"context"
	"time"

	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/models"
)

// Source supplies the records to cycle through, sorted by id.
type Source interface {
	Records(ctx context.Context) ([]models.ContainerRecord, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]models.ContainerRecord, error)

// Records calls f.
func (f SourceFunc) Records(ctx context.Context) ([]models.ContainerRecord, error) {
	return f(ctx)
}

// Sink receives focus frames.
type Sink interface {
	BroadcastFocus(State)
	GetClientCount() int
}

// Broadcaster pushes one focus frame per interval while anyone is watching.
// It is a suture service.
type Broadcaster struct {
	source   Source
	sink     Sink
	interval time.Duration
	epoch    time.Time
	now      func() time.Time
}

// NewBroadcaster creates a Broadcaster whose cycle starts now.
func NewBroadcaster(source Source, sink Sink, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Broadcaster{
		source:   source,
		sink:     sink,
		interval: interval,
		epoch:    time.Now(),
		now:      time.Now,
	}
}

// Epoch is the instant step zero began. The focus endpoint uses it so polling
// clients stay in phase with pushed frames.
func (b *Broadcaster) Epoch() time.Time {
	return b.epoch
}

// Interval returns the time each phase stays on screen.
func (b *Broadcaster) Interval() time.Duration {
	return b.interval
}

// Current returns the frame for the present instant.
func (b *Broadcaster) Current(ctx context.Context) (State, bool, error) {
	records, err := b.source.Records(ctx)
	if err != nil {
		return State{}, false, err
	}
	st, ok := At(records, StepAt(b.now(), b.epoch, b.interval))
	return st, ok, nil
}

// Serve implements suture.Service.
func (b *Broadcaster) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

func (b *Broadcaster) tick(ctx context.Context) {
	if b.sink.GetClientCount() == 0 {
		return
	}
	st, ok, err := b.Current(ctx)
	if err != nil {
		logging.Debug().Err(err).Msg("focus frame skipped, no snapshot")
		return
	}
	if ok {
		b.sink.BroadcastFocus(st)
	}
}

// String implements fmt.Stringer for supervisor logs.
func (b *Broadcaster) String() string {
	return "focus-broadcaster"
}
