// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package models

import (
	"math"
	"sort"

	"github.com/tomtom215/cargomap/internal/geo"
)

// ContainerRecord is one tracked container as served by the upstream
// tracking API and persisted in the cache snapshot.
type ContainerRecord struct {
	ID                int64             `json:"id"`
	Metadata          ContainerMetadata `json:"metadata"`
	Route             RouteStages       `json:"route"`
	RouteData         RouteData         `json:"route_data"`
	TrackedContainers []TrackedShipment `json:"trackedContainers,omitempty"`
}

// ContainerMetadata identifies the container and its carrier.
type ContainerMetadata struct {
	Number      string `json:"number" validate:"omitempty,max=32"`
	SealineName string `json:"sealine_name"`
	Status      string `json:"status"`
	UpdatedAt   string `json:"updated_at"`
}

// RouteStages holds the four milestone ports of a shipment.
type RouteStages struct {
	PrePOL  RoutePoint `json:"prepol"`
	POL     RoutePoint `json:"pol"`
	POD     RoutePoint `json:"pod"`
	PostPOD RoutePoint `json:"postpod"`
}

// RoutePoint is a milestone date, e.g. "2025-06-30 08:49:00".
type RoutePoint struct {
	Date             string  `json:"date"`
	Actual           bool    `json:"actual"`
	PredictiveETA    *string `json:"predictiveEta"`
	ResolvedLocation *string `json:"resolvedlocation"`
}

// RouteData carries the per-leg geometry and the last reported position.
type RouteData struct {
	RouteInfo []RouteLeg `json:"route_info"`
	Pin       *PathPoint `json:"pin,omitempty"`
}

// RouteLeg is one leg of a journey. Legs are ordered chronologically.
type RouteLeg struct {
	Type          string        `json:"type"`
	TransportType TransportType `json:"transport_type"`
	From          RouteLocation `json:"from"`
	To            RouteLocation `json:"to"`
	PathObjects   []PathPoint   `json:"pathObjects"`
}

// RouteLocation is a named leg endpoint.
type RouteLocation struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Name    string   `json:"name"`
	State   string   `json:"state"`
	Country string   `json:"country"`
}

// PathPoint is a raw vertex as sent upstream. Either component may be null.
type PathPoint struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// TrackedShipment is a display-only annotation attached to a container.
type TrackedShipment struct {
	OrderNumber *string `json:"nroOrden"`
	State       *string `json:"state"`
	Detail      *string `json:"detalle"`
	CompanyName *string `json:"nombreEmpresa"`
}

// Coordinate converts p into a geo.Coordinate. Missing components become
// NaN so that geo.Sanitize drops the point.
func (p PathPoint) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: deref(p.Lat), Lon: deref(p.Lng)}
}

// Coordinate returns the endpoint position, or nil when it is missing or
// malformed.
func (l RouteLocation) Coordinate() *geo.Coordinate {
	c := geo.Coordinate{Lat: deref(l.Lat), Lon: deref(l.Lng)}
	if !c.Valid() {
		return nil
	}
	return &c
}

// Legs converts the record's route into geometry legs.
func (r *ContainerRecord) Legs() []geo.Leg {
	legs := make([]geo.Leg, len(r.RouteData.RouteInfo))
	for i, leg := range r.RouteData.RouteInfo {
		path := make([]geo.Coordinate, len(leg.PathObjects))
		for j, p := range leg.PathObjects {
			path[j] = p.Coordinate()
		}
		legs[i] = geo.Leg{Path: path, From: leg.From.Coordinate(), To: leg.To.Coordinate()}
	}
	return legs
}

// PinCoordinate returns the live position, or nil when absent or malformed.
func (r *ContainerRecord) PinCoordinate() *geo.Coordinate {
	if r.RouteData.Pin == nil {
		return nil
	}
	c := r.RouteData.Pin.Coordinate()
	if !c.Valid() {
		return nil
	}
	return &c
}

// Journey projects the record's route and places its pin.
func (r *ContainerRecord) Journey() geo.Journey {
	return geo.BuildJourney(r.Legs(), r.PinCoordinate())
}

// SortByID orders records by ascending id in place.
func SortByID(records []ContainerRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

func deref(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}
