// Package index provides nearest-neighbor lookups over a fixed set of lon/lat
// points.
//
// Distances are planar, in coordinate degrees: sqrt(dLon² + dLat²). They are
// not great-circle kilometers, and a degree of longitude covers less ground
// toward the poles. See geo.RadiusKm for the physical extent of a radius.
package index

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// ErrEmptyIndex is returned when an index is built over zero points.
var ErrEmptyIndex = errors.New("spatial index has no points")

// Neighbor is a query result: an indexed point and its planar distance in
// degrees from the query.
type Neighbor struct {
	Point orb.Point
	Dist  float64
}

// Index is an immutable R-tree over distinct points.
type Index struct {
	tree   rtree.RTreeG[int]
	points []orb.Point
}

// Build deduplicates points, keeping first-seen order, and indexes them.
func Build(points []orb.Point) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmptyIndex
	}

	seen := make(map[orb.Point]struct{}, len(points))
	idx := &Index{points: make([]orb.Point, 0, len(points))}
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		i := len(idx.points)
		idx.points = append(idx.points, p)
		idx.tree.Insert(p, p, i)
	}
	return idx, nil
}

// Len returns the number of distinct indexed points.
func (idx *Index) Len() int { return len(idx.points) }

// Nearest returns up to k indexed points within maxRadius of q, ordered by
// increasing distance. It may return fewer than k, or none.
func (idx *Index) Nearest(q orb.Point, k int, maxRadius float64) []Neighbor {
	if k <= 0 {
		return nil
	}
	var out []Neighbor
	idx.tree.Nearby(boxDist(q), func(_, _ [2]float64, i int, dist float64) bool {
		if dist > maxRadius {
			return false
		}
		out = append(out, Neighbor{Point: idx.points[i], Dist: dist})
		return len(out) < k
	})
	return out
}

// NearestOne returns the closest indexed point to q, however far away it is.
func (idx *Index) NearestOne(q orb.Point) Neighbor {
	best := Neighbor{Dist: math.Inf(1)}
	idx.tree.Nearby(boxDist(q), func(_, _ [2]float64, i int, dist float64) bool {
		best = Neighbor{Point: idx.points[i], Dist: dist}
		return false
	})
	return best
}

// boxDist measures from q to the closest point of a bounding box. Items are
// degenerate boxes, so the same measure serves both nodes and leaves and
// keeps node distances a lower bound for their contents.
func boxDist(q orb.Point) func(min, max [2]float64, _ int, _ bool) float64 {
	return func(min, max [2]float64, _ int, _ bool) float64 {
		dx := axisGap(q[0], min[0], max[0])
		dy := axisGap(q[1], min[1], max[1])
		return math.Sqrt(dx*dx + dy*dy)
	}
}

func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}
