// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

// Package focus computes the wall-display autoplay cycle. The display walks
// through every container in id order, framing its start, then its live
// position, then its destination, one phase per step.
package focus

import (
	"time"

	"github.com/tomtom215/cargomap/internal/geo"
	"github.com/tomtom215/cargomap/internal/models"
)

// Phase is the part of a journey being framed.
type Phase string

const (
	PhaseStart Phase = "start"
	PhasePin   Phase = "pin"
	PhaseEnd   Phase = "end"
)

// phasesPerContainer is the number of steps spent on each container.
const phasesPerContainer = 3

// DefaultInterval is how long each phase stays on screen.
const DefaultInterval = 4 * time.Second

// State is the focus at one step of the cycle.
type State struct {
	Step        int64           `json:"step"`
	ContainerID int64           `json:"container_id"`
	Number      string          `json:"number"`
	Phase       Phase           `json:"phase"`
	Start       *geo.Coordinate `json:"start,omitempty"`
	Pin         *geo.Coordinate `json:"pin,omitempty"`
	End         *geo.Coordinate `json:"end,omitempty"`

	// Bounds lists the non-nil points to fit the camera to.
	Bounds []geo.Coordinate `json:"bounds"`
}

// At returns the focus for step over records, which must already be sorted
// by id (cache snapshots are). Negative steps wrap around. ok is false when
// records is empty.
func At(records []models.ContainerRecord, step int64) (State, bool) {
	if len(records) == 0 {
		return State{}, false
	}

	total := int64(len(records) * phasesPerContainer)
	norm := ((step % total) + total) % total
	rec := &records[norm/phasesPerContainer]

	var phase Phase
	switch norm % phasesPerContainer {
	case 0:
		phase = PhaseStart
	case 1:
		phase = PhasePin
	default:
		phase = PhaseEnd
	}

	j := rec.Journey()
	s := State{
		Step:        step,
		ContainerID: rec.ID,
		Number:      rec.Metadata.Number,
		Phase:       phase,
		Start:       j.Start,
		Pin:         j.Pin,
		End:         j.End,
		Bounds:      make([]geo.Coordinate, 0, 3),
	}
	for _, c := range []*geo.Coordinate{j.Start, j.Pin, j.End} {
		if c != nil {
			s.Bounds = append(s.Bounds, *c)
		}
	}
	return s, true
}

// StepAt derives the step shown at now for a cycle that began at epoch.
func StepAt(now, epoch time.Time, interval time.Duration) int64 {
	if interval <= 0 {
		interval = DefaultInterval
	}
	elapsed := now.Sub(epoch)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / interval)
}
