// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package geo

// Leg is the geometry of one route leg: its detailed path, if any, and its
// named endpoints. From and To are nil when the upstream record omits them.
type Leg struct {
	Path []Coordinate
	From *Coordinate
	To   *Coordinate
}

// Projection is the drawable form of a container route.
type Projection struct {
	// Lines holds one unwrapped polyline per leg that has path points.
	Lines [][]Coordinate `json:"lines"`

	// LineLegs maps each entry of Lines back to its leg index.
	LineLegs []int `json:"line_legs"`

	Start *Coordinate `json:"start,omitempty"`
	End   *Coordinate `json:"end,omitempty"`

	// Dropped counts malformed path points that were skipped.
	Dropped int `json:"dropped,omitempty"`
}

// Project unwraps every leg independently and derives the journey's start
// and end points. Legs are never offset-aligned with each other because
// consecutive legs may be geographically unrelated hops.
//
// Start is the first point of the first non-empty line, falling back to the
// first leg's From endpoint. End is the last point of the last non-empty
// line, falling back to the last leg's To endpoint. Either may be nil.
func Project(legs []Leg) Projection {
	p := Projection{
		Lines:    make([][]Coordinate, 0, len(legs)),
		LineLegs: make([]int, 0, len(legs)),
	}

	for i, leg := range legs {
		pts, dropped := Sanitize(leg.Path)
		p.Dropped += dropped
		if len(pts) == 0 {
			continue
		}
		p.Lines = append(p.Lines, Unwrap(pts))
		p.LineLegs = append(p.LineLegs, i)
	}

	if len(p.Lines) > 0 {
		first := p.Lines[0][0]
		lastLine := p.Lines[len(p.Lines)-1]
		last := lastLine[len(lastLine)-1]
		p.Start, p.End = &first, &last
		return p
	}

	if len(legs) > 0 {
		p.Start = validCopy(legs[0].From)
		p.End = validCopy(legs[len(legs)-1].To)
	}
	return p
}

// PlacePin moves a raw live position onto the world copy used by proj so
// that it renders beside its route. The reference longitude is the midpoint
// of the projected start and end; with no endpoints the pin is only
// normalized into [-180, 180]. A nil or malformed pin yields nil.
func PlacePin(proj Projection, pin *Coordinate) *Coordinate {
	if pin == nil || !pin.Valid() {
		return nil
	}

	placed := *pin
	switch {
	case proj.Start != nil && proj.End != nil:
		placed.Lon = ResolveNearestCopy(pin.Lon, (proj.Start.Lon+proj.End.Lon)/2)
	case proj.Start != nil:
		placed.Lon = ResolveNearestCopy(pin.Lon, proj.Start.Lon)
	case proj.End != nil:
		placed.Lon = ResolveNearestCopy(pin.Lon, proj.End.Lon)
	default:
		placed.Lon = NormalizeLongitude(pin.Lon)
	}
	return &placed
}

func validCopy(c *Coordinate) *Coordinate {
	if c == nil || !c.Valid() {
		return nil
	}
	cp := *c
	return &cp
}
