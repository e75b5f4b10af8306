// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package models

// TransportType is the carrier-reported mode of a leg. The vocabulary below
// is what the tracking API is known to send; unknown values pass through.
type TransportType string

const (
	TransportVessel     TransportType = "VESSEL"
	TransportBarge      TransportType = "BARGE"
	TransportFeeder     TransportType = "FEEDER"
	TransportTruck      TransportType = "TRUCK"
	TransportTrain      TransportType = "TRAIN"
	TransportRail       TransportType = "RAIL"
	TransportAir        TransportType = "AIR"
	TransportAircraft   TransportType = "AIRCRAFT"
	TransportIntermodal TransportType = "INTERMODAL"
	TransportRoRo       TransportType = "RO-RO"
	TransportLighter    TransportType = "LIGHTER"
	TransportPipeline   TransportType = "PIPELINE"
	TransportPost       TransportType = "POST"
	TransportWarehouse  TransportType = "WAREHOUSE"
	TransportPort       TransportType = "PORT"
	TransportOnFoot     TransportType = "ONFOOT"
	TransportBulk       TransportType = "BULK"
	TransportContainer  TransportType = "CONTAINER"
	TransportTanker     TransportType = "TANKER"
	TransportReefer     TransportType = "REEFER"
)

// TransportInfo is the display metadata for a transport type.
type TransportInfo struct {
	Icon        string `json:"icon"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Display strings are Spanish; the dashboard this feeds is Spanish-language.
var transportCatalog = map[TransportType]TransportInfo{
	TransportVessel:     {"🚢", "Buque", "Transporte marítimo"},
	TransportBarge:      {"🛶", "Barcaza", "Transporte fluvial"},
	TransportFeeder:     {"⛴️", "Alimentador", "Buque de conexión entre puertos"},
	TransportTruck:      {"🚛", "Camión", "Transporte por carretera"},
	TransportTrain:      {"🚂", "Tren", "Transporte ferroviario"},
	TransportRail:       {"🚂", "Tren", "Transporte ferroviario"},
	TransportAir:        {"✈️", "Aéreo", "Transporte por avión"},
	TransportAircraft:   {"✈️", "Aéreo", "Transporte por avión"},
	TransportIntermodal: {"🔄", "Multimodal", "Combinación de transportes"},
	TransportRoRo:       {"🚢⇨🚛", "RO-RO", "Transbordador para vehículos"},
	TransportLighter:    {"🚤", "Barcaza", "Transferencia puerto-barco"},
	TransportPipeline:   {"⛽", "Tubería", "Transporte por ductos"},
	TransportPost:       {"📮", "Postal", "Servicio de correos"},
	TransportWarehouse:  {"🏭", "Almacén", "Almacenamiento temporal"},
	TransportPort:       {"⚓", "Puerto", "Operación portuaria"},
	TransportOnFoot:     {"🚶", "A pie", "Transporte manual"},
	TransportBulk:       {"🔄", "Granel", "Carga a granel"},
	TransportContainer:  {"📦", "Contenedor", "Contenedor estándar"},
	TransportTanker:     {"🛢️", "Tanquero", "Transporte de líquidos"},
	TransportReefer:     {"❄️", "Refrigerado", "Contenedor con control de temperatura"},
}

// DefaultTransportIcon is used for transport types outside the catalog.
const DefaultTransportIcon = "🚚"

// PinFallbackIcon marks a live position whose leg cannot be determined.
const PinFallbackIcon = "📍"

// Known reports whether t is part of the catalog.
func (t TransportType) Known() bool {
	_, ok := transportCatalog[t]
	return ok
}

// Details returns the display metadata for t. Unknown types keep their raw
// value as the label.
func (t TransportType) Details() TransportInfo {
	if info, ok := transportCatalog[t]; ok {
		return info
	}
	return TransportInfo{
		Icon:        DefaultTransportIcon,
		Label:       string(t),
		Description: "Tipo de transporte no especificado",
	}
}

// PinTransport returns the transport type of the leg at legIndex, or "" when
// the index is out of range.
func (r *ContainerRecord) PinTransport(legIndex int) TransportType {
	if legIndex < 0 || legIndex >= len(r.RouteData.RouteInfo) {
		return ""
	}
	return r.RouteData.RouteInfo[legIndex].TransportType
}
