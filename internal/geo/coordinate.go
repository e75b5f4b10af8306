// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedCoordinate reports a point with non-finite components or a
// latitude outside [-90, 90].
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// Coordinate is a (latitude, longitude) pair in degrees. Longitude may lie
// outside [-180, 180] once a route has been unwrapped.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Validate returns ErrMalformedCoordinate when c cannot be placed on a map.
func (c Coordinate) Validate() error {
	switch {
	case math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0):
		return fmt.Errorf("%w: latitude %v", ErrMalformedCoordinate, c.Lat)
	case math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0):
		return fmt.Errorf("%w: longitude %v", ErrMalformedCoordinate, c.Lon)
	case c.Lat < -90 || c.Lat > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrMalformedCoordinate, c.Lat)
	}
	return nil
}

// Valid reports whether Validate returns nil.
func (c Coordinate) Valid() bool {
	return c.Validate() == nil
}

// Sanitize returns the valid points of pts in order and the number of points
// that were dropped.
func Sanitize(pts []Coordinate) ([]Coordinate, int) {
	out := make([]Coordinate, 0, len(pts))
	for _, p := range pts {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out, len(pts) - len(out)
}

// NormalizeLongitude wraps lon into [-180, 180]. Values past +180 land on
// the closed upper bound, so 540 maps to 180. Non-finite input is returned
// unchanged.
func NormalizeLongitude(lon float64) float64 {
	switch {
	case math.IsNaN(lon) || math.IsInf(lon, 0):
		return lon
	case lon > 180:
		return lon - 360*math.Ceil((lon-180)/360)
	case lon < -180:
		return lon + 360*math.Ceil((-180-lon)/360)
	}
	return lon
}
