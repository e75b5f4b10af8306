// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between a and b.
// Longitudes may be unwrapped; the result is invariant under 360° shifts.
func HaversineMeters(a, b Coordinate) float64 {
	const rad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLon := (b.Lon - a.Lon) * rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Classify returns the index of the line that owns the vertex nearest to
// pin. A nil or malformed pin is treated as "arrived" and selects the last
// line. Ties keep the first minimum found, scanning line by line and point
// by point. Classify returns -1 when there are no lines.
func Classify(lines [][]Coordinate, pin *Coordinate) int {
	if len(lines) == 0 {
		return -1
	}
	if pin == nil || !pin.Valid() {
		return len(lines) - 1
	}

	best, bestDist := -1, math.Inf(1)
	for i, line := range lines {
		for _, pt := range line {
			if d := HaversineMeters(*pin, pt); d < bestDist {
				best, bestDist = i, d
			}
		}
	}
	if best < 0 {
		return len(lines) - 1
	}
	return best
}

// ClassifyLeg is Classify expressed in leg indexes rather than line indexes.
// legCount is the number of legs on the record; a nil pin, or a route with
// no drawable lines, selects the last leg. It returns -1 only when legCount
// is zero.
func ClassifyLeg(proj Projection, legCount int, pin *Coordinate) int {
	if legCount <= 0 {
		return -1
	}
	if pin == nil || !pin.Valid() {
		return legCount - 1
	}
	line := Classify(proj.Lines, pin)
	if line < 0 || line >= len(proj.LineLegs) {
		return legCount - 1
	}
	return proj.LineLegs[line]
}

// Journey bundles a projected route with its placed live position and the
// leg that position belongs to.
type Journey struct {
	Projection
	Pin      *Coordinate `json:"pin,omitempty"`
	LegIndex int         `json:"leg_index"`
}

// BuildJourney runs projection, pin placement and classification in order.
func BuildJourney(legs []Leg, pin *Coordinate) Journey {
	proj := Project(legs)
	placed := PlacePin(proj, pin)
	return Journey{
		Projection: proj,
		Pin:        placed,
		LegIndex:   ClassifyLeg(proj, len(legs), placed),
	}
}
