package routing

import (
	"errors"
	"math"

	"fiber_router/pkg/graph"
)

// ErrNoRoute is returned when start and end lie in different components.
var ErrNoRoute = errors.New("no route found")

const noArc = ^uint32(0) // sentinel for "no predecessor arc"

// MinHeap is a concrete-typed min-heap for the Dijkstra priority queue.
// Entries with equal distance pop in push order, so ties resolve by
// discovery order.
type MinHeap struct {
	items []PQItem
	seq   uint64
}

// PQItem is a priority queue entry.
type PQItem struct {
	Node uint32
	Dist float64
	seq  uint64
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, PQItem{Node: node, Dist: dist, seq: h.seq})
	h.seq++
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	return a.seq < b.seq
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// Path is a node sequence through the graph with the edge used for each hop.
type Path struct {
	Nodes []uint32
	Edges []uint32 // len(Nodes)-1; index into graph.Graph.Edges
	Cost  float64  // sum of edge weights
}

// ShortestPath runs Dijkstra over edge weights from start to end. A start
// equal to end yields a single-node path of zero cost.
func ShortestPath(g *graph.Graph, start, end uint32) (*Path, error) {
	if !g.Connected(start, end) {
		return nil, ErrNoRoute
	}
	if start == end {
		return &Path{Nodes: []uint32{start}}, nil
	}

	dist := make([]float64, g.NumNodes)
	pred := make([]uint32, g.NumNodes) // arc used to reach each node
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = noArc
	}
	done := make([]bool, g.NumNodes)

	var pq MinHeap
	dist[start] = 0
	pq.Push(start, 0)

	for pq.Len() > 0 {
		item := pq.Pop()
		u := item.Node
		if done[u] {
			continue // stale entry
		}
		done[u] = true
		if u == end {
			break
		}

		from, to := g.ArcsFrom(u)
		for a := from; a < to; a++ {
			v := g.Head[a]
			if done[v] {
				continue
			}
			nd := item.Dist + g.Edges[g.EdgeOf[a]].Weight
			if nd < dist[v] {
				dist[v] = nd
				pred[v] = a
				pq.Push(v, nd)
			}
		}
	}

	if !done[end] {
		return nil, ErrNoRoute
	}

	return reconstruct(g, start, end, pred, dist[end]), nil
}

// reconstruct walks predecessor arcs back from end and reverses the result.
func reconstruct(g *graph.Graph, start, end uint32, pred []uint32, cost float64) *Path {
	var nodes, edges []uint32
	node := end
	for node != start {
		a := pred[node]
		nodes = append(nodes, node)
		edges = append(edges, g.EdgeOf[a])
		node = arcSource(g, a)
	}
	nodes = append(nodes, start)

	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return &Path{Nodes: nodes, Edges: edges, Cost: cost}
}

// arcSource finds the tail node of arc a by binary search over FirstOut.
func arcSource(g *graph.Graph, a uint32) uint32 {
	lo, hi := uint32(0), g.NumNodes
	for lo < hi {
		mid := (lo + hi) / 2
		if g.FirstOut[mid+1] <= a {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
