// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/metrics"
	ws "github.com/tomtom215/cargomap/internal/websocket"
)

// Broadcaster is the part of the WebSocket hub the forwarder drives.
type Broadcaster interface {
	BroadcastRefreshCompleted(ws.RefreshCompletedData)
	BroadcastRefreshFailed(ws.RefreshFailedData)
}

// Subscriber is the part of Bus the forwarder consumes.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Forwarder relays refresh events from the bus to WebSocket clients. It is a
// suture service.
type Forwarder struct {
	sub  Subscriber
	hub  Broadcaster
	name string

	readyOnce sync.Once
	ready     chan struct{}
}

// NewForwarder creates a forwarder from sub to hub.
func NewForwarder(sub Subscriber, hub Broadcaster) *Forwarder {
	return &Forwarder{
		sub:   sub,
		hub:   hub,
		name:  "event-forwarder",
		ready: make(chan struct{}),
	}
}

// Ready is closed once the first Serve has subscribed to every topic.
func (f *Forwarder) Ready() <-chan struct{} {
	return f.ready
}

// Serve implements suture.Service.
func (f *Forwarder) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	refreshed, err := f.sub.Subscribe(ctx, TopicRefreshed)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicRefreshed, err)
	}
	failed, err := f.sub.Subscribe(ctx, TopicRefreshFailed)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicRefreshFailed, err)
	}
	f.readyOnce.Do(func() { close(f.ready) })
	logging.Info().Strs("topics", Topics).Msg("event forwarder subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-refreshed:
			if !ok {
				return f.closedErr(ctx, TopicRefreshed)
			}
			f.handle(TopicRefreshed, msg)
		case msg, ok := <-failed:
			if !ok {
				return f.closedErr(ctx, TopicRefreshFailed)
			}
			f.handle(TopicRefreshFailed, msg)
		}
	}
}

// closedErr distinguishes shutdown from a bus closed under the forwarder.
func (f *Forwarder) closedErr(ctx context.Context, topic string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("subscription to %s closed", topic)
}

func (f *Forwarder) handle(topic string, msg *message.Message) {
	defer msg.Ack()

	ev, err := UnmarshalRefreshEvent(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("topic", topic).Str("message_uuid", msg.UUID).Msg("dropping malformed refresh event")
		return
	}

	ts := ev.Timestamp.UTC().Format(time.RFC3339)
	if ev.Success {
		f.hub.BroadcastRefreshCompleted(ws.RefreshCompletedData{
			EventID:    ev.EventID,
			Timestamp:  ts,
			Count:      ev.Count,
			DurationMs: ev.DurationMs,
		})
	} else {
		f.hub.BroadcastRefreshFailed(ws.RefreshFailedData{
			EventID:   ev.EventID,
			Timestamp: ts,
			Error:     ev.Error,
		})
	}
	metrics.EventsForwarded.WithLabelValues(topic).Inc()
}

// String implements fmt.Stringer for supervisor logs.
func (f *Forwarder) String() string {
	return f.name
}
