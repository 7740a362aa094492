// Package bridge splices terrestrial and submarine networks together at cable
// landing points.
package bridge

import (
	"github.com/paulmach/orb"

	"fiber_router/pkg/geo"
	"fiber_router/pkg/graph"
	"fiber_router/pkg/index"
)

// LandingStationOwner is the owner recorded on every bridge edge.
const LandingStationOwner = "Landing Station"

// Options sets the search radii, in planar degrees, and the number of land
// nodes each landing point may splice into.
type Options struct {
	LandRadius     float64
	SubRadius      float64
	LandNeighbours int
}

// DefaultOptions are 0.5° and 0.2° (about 55 km and 22 km of latitude) with
// three land nodes per landing.
func DefaultOptions() Options {
	return Options{LandRadius: 0.5, SubRadius: 0.2, LandNeighbours: 3}
}

// Result holds the emitted bridge edges and how many landing points produced
// at least one of them.
type Result struct {
	Edges     []graph.Edge
	Connected int
}

// Bridge links, for each landing point, its nearest submarine node to up to
// LandNeighbours nearby land nodes. A landing point missing either side within
// radius contributes nothing, and no edge is emitted to a land node that is
// the submarine node itself.
func Bridge(land, sub *index.Index, landings []orb.Point, opts Options) *Result {
	res := &Result{}
	if land == nil || sub == nil {
		return res
	}

	for _, p := range landings {
		landHits := land.Nearest(p, opts.LandNeighbours, opts.LandRadius)
		subHits := sub.Nearest(p, 1, opts.SubRadius)
		if len(landHits) == 0 || len(subHits) == 0 {
			continue
		}

		s := subHits[0].Point
		for _, l := range landHits {
			if l.Point == s {
				continue // shared node, the networks already meet here
			}
			d := geo.DistanceKm(s, l.Point)
			res.Edges = append(res.Edges, graph.Edge{
				U:          s,
				V:          l.Point,
				Weight:     d,
				ActualDist: d,
				Owner:      LandingStationOwner,
				Type:       graph.Bridge,
			})
		}
		res.Connected++
	}

	return res
}
