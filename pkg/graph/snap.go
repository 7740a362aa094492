package graph

import "github.com/paulmach/orb"

// SnapResult is a query coordinate mapped onto its nearest graph node.
type SnapResult struct {
	Node    uint32
	Point   orb.Point
	DistDeg float64 // planar distance in degrees from the query
}

// Snap returns the node nearest to q. It always succeeds on a built graph,
// however far q is from the network.
func (g *Graph) Snap(q orb.Point) SnapResult {
	n := g.snap.NearestOne(q)
	id, _ := g.NodeID(n.Point)
	return SnapResult{
		Node:    id,
		Point:   n.Point,
		DistDeg: n.Dist,
	}
}
