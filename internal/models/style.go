// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package models

// Leg categories as reported in RouteLeg.Type.
const (
	LegCategorySea  = "SEA"
	LegCategoryLand = "LAND"
	LegCategoryAir  = "AIR"
)

// routePalette is cycled by leg index.
var routePalette = [...]string{
	"#FF6B6B",
	"#48BB78",
	"#4299E1",
	"#F6AD55",
	"#9F7AEA",
	"#ED64A6",
	"#667EEA",
	"#ECC94B",
}

// LineStyle is the polyline styling hint served to the map front end.
type LineStyle struct {
	Color     string  `json:"color"`
	Weight    int     `json:"weight"`
	Opacity   float64 `json:"opacity"`
	DashArray string  `json:"dashArray,omitempty"`
}

// RouteColor returns the palette colour for a leg index.
func RouteColor(index int) string {
	if index < 0 {
		index = -index
	}
	return routePalette[index%len(routePalette)]
}

// RouteStyle returns the line style for a leg category at legIndex. Sea legs
// alternate solid and dashed so consecutive ocean hops stay distinguishable.
func RouteStyle(category string, legIndex int) LineStyle {
	s := LineStyle{Color: RouteColor(legIndex), Weight: 4, Opacity: 0.9}
	switch category {
	case LegCategorySea:
		if legIndex%2 != 0 {
			s.DashArray = "5, 5"
		}
	case LegCategoryLand:
		s.DashArray = "8, 4"
	case LegCategoryAir:
		s.DashArray = "2, 6"
	default:
		s.Weight = 3
		s.Opacity = 0.7
		s.DashArray = "4, 8"
	}
	return s
}
