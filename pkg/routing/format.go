package routing

import (
	"math"
	"sort"

	"fiber_router/pkg/graph"
)

// rttKmPerMs is the fixed heuristic divisor for round-trip time: total km
// over 100 gives milliseconds.
const rttKmPerMs = 100.0

// LatLon is a [lat, lon] pair as rendered in results.
type LatLon [2]float64

// Segment is one traversed edge of a route.
type Segment struct {
	Coords [2]LatLon `json:"coords"`
	Owner  string    `json:"owner"`
	Type   string    `json:"type"`
	Dist   float64   `json:"dist"` // km, 2 decimals
}

// Summary aggregates a route.
type Summary struct {
	TotalKm float64 `json:"total_km"`
	RTT     float64 `json:"rtt"`
}

// BuildStats describes the graph a route was computed on.
type BuildStats struct {
	LandEdges       int
	SubmarineEdges  int
	BridgeEdges     int
	Landings        int
	BridgedLandings int
	Nodes           uint32
	Edges           uint32
	Components      uint32
}

// RouteResult is the output of a route computation.
type RouteResult struct {
	Summary  Summary   `json:"summary"`
	Segments []Segment `json:"segments"`
	Partners []string  `json:"partners"`

	Stats BuildStats `json:"-"`
}

// Format renders path into segments and summary statistics.
func Format(g *graph.Graph, path *Path) *RouteResult {
	res := &RouteResult{
		Segments: make([]Segment, 0, len(path.Edges)),
		Partners: []string{},
	}

	var totalKm float64
	owners := make(map[string]struct{})
	for i, ei := range path.Edges {
		e := g.Edges[ei]
		u := g.Nodes[path.Nodes[i]]
		v := g.Nodes[path.Nodes[i+1]]

		totalKm += e.ActualDist
		owners[e.Owner] = struct{}{}
		res.Segments = append(res.Segments, Segment{
			Coords: [2]LatLon{{u.Lat(), u.Lon()}, {v.Lat(), v.Lon()}},
			Owner:  e.Owner,
			Type:   string(e.Type),
			Dist:   round2(e.ActualDist),
		})
	}

	for o := range owners {
		res.Partners = append(res.Partners, o)
	}
	sort.Strings(res.Partners)

	res.Summary = Summary{
		TotalKm: round2(totalKm),
		RTT:     round2(totalKm / rttKmPerMs),
	}
	return res
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
