// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package geo

import "math"

// Unwrap returns a copy of pts whose longitudes have been shifted by
// multiples of 360° so that no two consecutive points differ by more than
// 180°. Latitudes and length are preserved. Inputs with fewer than two
// points are returned as a copy.
//
// Non-finite longitudes are copied through untouched and do not move the
// running offset; run Sanitize first to drop them.
func Unwrap(pts []Coordinate) []Coordinate {
	out := make([]Coordinate, len(pts))
	copy(out, pts)
	if len(out) < 2 {
		return out
	}

	offset := 0.0
	prev := out[0].Lon
	for i := 1; i < len(out); i++ {
		if !finite(out[i].Lon) {
			continue
		}
		if !finite(prev) {
			prev = out[i].Lon + offset
			out[i].Lon = prev
			continue
		}
		// math.Mod is exact, so pre-shifted or huge longitudes reduce to
		// (-360, 360) and a single correction lands within 180° of prev.
		lon := math.Mod(out[i].Lon, 360)
		adjusted := lon + offset
		if d := adjusted - prev; d > 180 || d < -180 {
			offset -= 360 * math.Round(d/360)
			adjusted = lon + offset
		}
		out[i].Lon = adjusted
		prev = adjusted
	}
	return out
}

// ResolveNearestCopy returns the longitude equivalent to lon (mod 360) that
// lies closest to ref, always within [ref-180, ref+180].
//
//	ResolveNearestCopy(179, -179) == -181
func ResolveNearestCopy(lon, ref float64) float64 {
	k := math.Round((ref - lon) / 360)
	return lon + 360*k
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
