// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package cache

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cargomap/internal/models"
)

// Snapshot is the committed container list. Snapshots returned by Cache are
// shared between callers and must be treated as read-only.
type Snapshot struct {
	// WrittenAt is when the snapshot was committed. It is zero for files
	// written in the legacy bare-array format.
	WrittenAt time.Time `json:"written_at"`

	// Containers is ordered by ascending id.
	Containers []models.ContainerRecord `json:"containers"`

	// Generation identifies the committed bytes; it changes on every
	// successful refresh that alters the content.
	Generation string `json:"-"`
}

// Len returns the number of containers.
func (s *Snapshot) Len() int { return len(s.Containers) }

// Find returns the container with the given id.
func (s *Snapshot) Find(id int64) (*models.ContainerRecord, bool) {
	i := sort.Search(len(s.Containers), func(i int) bool { return s.Containers[i].ID >= id })
	if i < len(s.Containers) && s.Containers[i].ID == id {
		return &s.Containers[i], true
	}
	return nil, false
}

// FindByNumber returns the container with the given tracking number.
func (s *Snapshot) FindByNumber(number string) (*models.ContainerRecord, bool) {
	for i := range s.Containers {
		if s.Containers[i].Metadata.Number == number {
			return &s.Containers[i], true
		}
	}
	return nil, false
}

func encodeSnapshot(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// decodeSnapshot accepts both the envelope format and a bare JSON array of
// records, which is what older deployments wrote.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("snapshot is empty")
	}

	snap := &Snapshot{Generation: generationOf(data)}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &snap.Containers); err != nil {
			return nil, fmt.Errorf("decode legacy snapshot: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	models.SortByID(snap.Containers)
	return snap, nil
}

func generationOf(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
