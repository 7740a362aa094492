package graph

import (
	"github.com/paulmach/orb"

	"fiber_router/pkg/index"
)

// EdgeType classifies the physical medium an edge represents.
type EdgeType string

const (
	Land      EdgeType = "land"
	Submarine EdgeType = "submarine"
	Bridge    EdgeType = "bridge"
)

// Edge is an undirected connection between two rounded coordinates.
type Edge struct {
	U, V       orb.Point
	Weight     float64 // routing cost, km-equivalent, possibly discounted
	ActualDist float64 // great-circle length in km
	Owner      string
	Type       EdgeType
}

// Graph is an undirected route graph stored as a symmetric CSR adjacency.
// Every undirected edge appears twice in Head/EdgeOf, once per direction.
type Graph struct {
	NumNodes uint32
	NumEdges uint32      // undirected edge count
	Nodes    []orb.Point // len: NumNodes; node i's rounded coordinate
	Edges    []Edge      // len: NumEdges

	FirstOut []uint32 // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are arcs from node i
	Head     []uint32 // len: 2*NumEdges; target node of each arc
	EdgeOf   []uint32 // len: 2*NumEdges; index into Edges for each arc

	component []uint32 // component label per node
	numComps  uint32
	largest   uint32 // node count of the largest component
	nodeID    map[orb.Point]uint32
	snap      *index.Index
}

// ArcsFrom returns the range of arc indices leaving node u.
func (g *Graph) ArcsFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// NodeID returns the node for a rounded coordinate.
func (g *Graph) NodeID(p orb.Point) (uint32, bool) {
	id, ok := g.nodeID[p]
	return id, ok
}

// Connected reports whether u and v lie in the same connected component.
func (g *Graph) Connected(u, v uint32) bool {
	return g.component[u] == g.component[v]
}

// NumComponents returns the number of connected components.
func (g *Graph) NumComponents() uint32 { return g.numComps }
