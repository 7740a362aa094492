package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"fiber_router/pkg/index"
)

// ErrEmptyGraph is returned when no edge set contributes a node.
var ErrEmptyGraph = errors.New("route graph has no nodes")

// pairKey identifies an undirected node pair independent of orientation.
type pairKey struct{ lo, hi uint32 }

func keyOf(u, v uint32) pairKey {
	if u > v {
		u, v = v, u
	}
	return pairKey{u, v}
}

// Build unions the edge sets into one graph. Nodes are numbered in first-seen
// order. When several edges join the same pair, the last one wins. Self-loops
// are dropped.
func Build(edgeSets ...[]Edge) (*Graph, error) {
	// Step 1: Collect all unique coordinates and build a compact mapping.
	nodeID := make(map[orb.Point]uint32)
	var nodes []orb.Point

	addNode := func(p orb.Point) uint32 {
		if idx, ok := nodeID[p]; ok {
			return idx
		}
		idx := uint32(len(nodes))
		nodeID[p] = idx
		nodes = append(nodes, p)
		return idx
	}

	// Step 2: Deduplicate undirected pairs, keeping first-seen slot but
	// last-written attributes.
	slot := make(map[pairKey]int)
	var edges []Edge
	type endpoints struct{ u, v uint32 }
	var ends []endpoints

	for _, set := range edgeSets {
		for _, e := range set {
			u := addNode(e.U)
			v := addNode(e.V)
			if u == v {
				continue
			}
			k := keyOf(u, v)
			if i, ok := slot[k]; ok {
				edges[i] = e
				ends[i] = endpoints{u, v}
				continue
			}
			slot[k] = len(edges)
			edges = append(edges, e)
			ends = append(ends, endpoints{u, v})
		}
	}

	if len(nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	numNodes := uint32(len(nodes))
	numEdges := uint32(len(edges))

	// Step 3: Expand into arcs and sort by source node, then target.
	type arc struct{ from, to, edge uint32 }
	arcs := make([]arc, 0, 2*len(edges))
	for i, ep := range ends {
		arcs = append(arcs, arc{ep.u, ep.v, uint32(i)}, arc{ep.v, ep.u, uint32(i)})
	}
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].from != arcs[j].from {
			return arcs[i].from < arcs[j].from
		}
		return arcs[i].to < arcs[j].to
	})

	// Step 4: Build CSR arrays.
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, len(arcs))
	edgeOf := make([]uint32, len(arcs))
	for i, a := range arcs {
		head[i] = a.to
		edgeOf[i] = a.edge
		firstOut[a.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	g := &Graph{
		NumNodes: numNodes,
		NumEdges: numEdges,
		Nodes:    nodes,
		Edges:    edges,
		FirstOut: firstOut,
		Head:     head,
		EdgeOf:   edgeOf,
		nodeID:   nodeID,
	}

	// Step 5: Label components and index nodes for snapping.
	g.component, g.numComps, g.largest = labelComponents(g)
	snap, err := index.Build(nodes)
	if err != nil {
		return nil, fmt.Errorf("index graph nodes: %w", err)
	}
	g.snap = snap

	return g, nil
}
