package api

import (
	"time"

	"fiber_router/pkg/routing"
)

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start LatLngJSON `json:"start"`
	End   LatLngJSON `json:"end"`
}

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Status   string            `json:"status"`
	Summary  routing.Summary   `json:"summary"`
	Segments []routing.Segment `json:"segments"`
	Partners []string          `json:"partners"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
}

// DatasetStats describes one cached upstream dataset.
type DatasetStats struct {
	Source    string    `json:"source"`
	Features  int       `json:"features"`
	FetchedAt time.Time `json:"fetched_at"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	SubmarineFilter string         `json:"submarine_filter"`
	SubmarineCost   float64        `json:"submarine_cost"`
	BBoxPad         float64        `json:"bbox_pad"`
	Datasets        []DatasetStats `json:"datasets"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
