// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cargomap/internal/cache"
)

// Topics
const (
	TopicRefreshed     = "containers.refreshed"
	TopicRefreshFailed = "containers.refresh_failed"
)

// Topics lists every topic the forwarder consumes.
var Topics = []string{TopicRefreshed, TopicRefreshFailed}

// RefreshEvent describes one refresh attempt.
type RefreshEvent struct {
	EventID    string    `json:"event_id"`
	Success    bool      `json:"success"`
	Count      int       `json:"count"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRefreshEvent builds an event from a cache refresh result.
func NewRefreshEvent(res cache.Result) *RefreshEvent {
	ev := &RefreshEvent{
		EventID:    uuid.New().String(),
		Success:    res.Success,
		Count:      res.Count,
		DurationMs: res.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if !res.Started.IsZero() {
		ev.Timestamp = res.Started.Add(res.Duration).UTC()
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	return ev
}

// Topic returns the topic the event is published on.
func (e *RefreshEvent) Topic() string {
	if e.Success {
		return TopicRefreshed
	}
	return TopicRefreshFailed
}

// Marshal encodes the event as JSON.
func (e *RefreshEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalRefreshEvent decodes and sanity-checks an event payload.
func UnmarshalRefreshEvent(data []byte) (*RefreshEvent, error) {
	var ev RefreshEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode refresh event: %w", err)
	}
	if ev.EventID == "" {
		return nil, fmt.Errorf("decode refresh event: missing event_id")
	}
	return &ev, nil
}
