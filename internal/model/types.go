package model

import "time"

// Core domain types for route geometry.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DecodeOptions controls post-processing of a decoded polyline.
// A nil Simplify means large routes are simplified; an explicit false turns it off.
// Tolerance is in raw degrees; values <= 0 select the library default.
type DecodeOptions struct {
	Simplify  *bool   `json:"simplify,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

// ShouldSimplify reports whether large routes get simplified.
func (o DecodeOptions) ShouldSimplify() bool {
	return o.Simplify == nil || *o.Simplify
}

// Bool returns a pointer to v, for DecodeOptions literals.
func Bool(v bool) *bool { return &v }

type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Fix is a timestamped position report.
type Fix struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	At  time.Time `json:"at"`
}

func (f Fix) Point() GeoPoint { return GeoPoint{Lat: f.Lat, Lng: f.Lng} }

type Deviation struct {
	Deviated    bool    `json:"deviated"`
	DistanceM   float64 `json:"distanceM"`
	DurationSec float64 `json:"durationSec"`
	// Nearest is the closest route vertex as "lat,lng"; HeadingDeg points to it.
	Nearest    string  `json:"nearest,omitempty"`
	HeadingDeg float64 `json:"headingDeg"`
	// DelayMin is set when the request carried a schedule.
	DelayMin *int `json:"delayMin,omitempty"`
}

// API payloads

type DecodeRequest struct {
	Encoded   string  `json:"encoded"`
	Simplify  *bool   `json:"simplify,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

func (r DecodeRequest) Options() DecodeOptions {
	return DecodeOptions{Simplify: r.Simplify, Tolerance: r.Tolerance}
}

type DecodeResponse struct {
	Points  []GeoPoint `json:"points"`
	Count   int        `json:"count"`
	Bounds  *Bounds    `json:"bounds,omitempty"`
	LengthM float64    `json:"lengthM"`
	Cached  bool       `json:"cached,omitempty"`
}

type RouteGeometry struct {
	RouteID string `json:"routeId"`
	DecodeResponse
}

// SaveGeometryRequest replaces a route's stored polyline.
type SaveGeometryRequest struct {
	Encoded string `json:"encoded"`
}

type DeviationRequest struct {
	Polyline string   `json:"polyline"`
	Current  GeoPoint `json:"current"`
	History  []Fix    `json:"history,omitempty"`
	// Schedule is the timed plan for the route; with ScheduledStart it
	// yields a delay estimate.
	Schedule       []Fix      `json:"schedule,omitempty"`
	ScheduledStart *time.Time `json:"scheduledStart,omitempty"`
}
