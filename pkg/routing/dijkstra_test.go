package routing

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"

	"fiber_router/pkg/graph"
)

func edge(u, v orb.Point, w float64) graph.Edge {
	return graph.Edge{U: u, V: v, Weight: w, ActualDist: w, Owner: "op", Type: graph.Land}
}

// buildTestGraph creates a small ladder graph.
//
//	a ---1--- b ---2--- c
//	|                   |
//	3                   4
//	|                   |
//	d ---5--- e ---6--- f
func buildTestGraph(t *testing.T) (*graph.Graph, map[string]orb.Point) {
	t.Helper()
	pts := map[string]orb.Point{
		"a": {0, 1}, "b": {1, 1}, "c": {2, 1},
		"d": {0, 0}, "e": {1, 0}, "f": {2, 0},
	}
	g, err := graph.Build([]graph.Edge{
		edge(pts["a"], pts["b"], 1),
		edge(pts["b"], pts["c"], 2),
		edge(pts["a"], pts["d"], 3),
		edge(pts["c"], pts["f"], 4),
		edge(pts["d"], pts["e"], 5),
		edge(pts["e"], pts["f"], 6),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g, pts
}

func nodeOf(t *testing.T, g *graph.Graph, p orb.Point) uint32 {
	t.Helper()
	id, ok := g.NodeID(p)
	if !ok {
		t.Fatalf("point %v not in graph", p)
	}
	return id
}

func TestMinHeapOrder(t *testing.T) {
	var h MinHeap
	for i, d := range []float64{5, 1, 4, 1, 3, 2} {
		h.Push(uint32(i), d)
	}

	var got []uint32
	for h.Len() > 0 {
		got = append(got, h.Pop().Node)
	}
	// Equal distances (nodes 1 and 3) pop in push order.
	want := []uint32{1, 3, 5, 4, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", got, want)
		}
	}
}

func TestShortestPath(t *testing.T) {
	g, pts := buildTestGraph(t)

	tests := []struct {
		from, to string
		cost     float64
		hops     int
	}{
		{"a", "b", 1, 1},
		{"a", "c", 3, 2},
		{"a", "f", 7, 3},  // a-b-c-f
		{"d", "c", 6, 3},  // d-a-b-c
		{"e", "c", 10, 2}, // e-f-c beats e-d-a-b-c (11)
		{"d", "f", 10, 4}, // d-a-b-c-f beats d-e-f (11)
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			p, err := ShortestPath(g, nodeOf(t, g, pts[tt.from]), nodeOf(t, g, pts[tt.to]))
			if err != nil {
				t.Fatalf("ShortestPath: %v", err)
			}
			if p.Cost != tt.cost {
				t.Errorf("cost = %v, want %v", p.Cost, tt.cost)
			}
			if len(p.Edges) != tt.hops {
				t.Errorf("hops = %d, want %d", len(p.Edges), tt.hops)
			}
			if len(p.Nodes) != len(p.Edges)+1 {
				t.Errorf("len(Nodes) = %d, want len(Edges)+1 = %d", len(p.Nodes), len(p.Edges)+1)
			}
		})
	}
}

func TestShortestPathEdgesMatchNodes(t *testing.T) {
	g, pts := buildTestGraph(t)
	p, err := ShortestPath(g, nodeOf(t, g, pts["d"]), nodeOf(t, g, pts["f"]))
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}

	var sum float64
	for i, ei := range p.Edges {
		e := g.Edges[ei]
		u, v := g.Nodes[p.Nodes[i]], g.Nodes[p.Nodes[i+1]]
		if !(e.U == u && e.V == v) && !(e.U == v && e.V == u) {
			t.Errorf("hop %d: edge %v-%v does not join %v and %v", i, e.U, e.V, u, v)
		}
		sum += e.Weight
	}
	if sum != p.Cost {
		t.Errorf("sum of edge weights = %v, Cost = %v", sum, p.Cost)
	}
	if p.Nodes[0] != nodeOf(t, g, pts["d"]) || p.Nodes[len(p.Nodes)-1] != nodeOf(t, g, pts["f"]) {
		t.Errorf("path endpoints = %d..%d", p.Nodes[0], p.Nodes[len(p.Nodes)-1])
	}
}

func TestShortestPathSameNode(t *testing.T) {
	g, pts := buildTestGraph(t)
	a := nodeOf(t, g, pts["a"])

	p, err := ShortestPath(g, a, a)
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if len(p.Nodes) != 1 || len(p.Edges) != 0 || p.Cost != 0 {
		t.Errorf("path = %+v, want single node with zero cost", p)
	}
}

func TestShortestPathDisconnected(t *testing.T) {
	g, err := graph.Build([]graph.Edge{
		edge(orb.Point{0, 0}, orb.Point{1, 0}, 1),
		edge(orb.Point{10, 10}, orb.Point{11, 10}, 1),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, err = ShortestPath(g, nodeOf(t, g, orb.Point{0, 0}), nodeOf(t, g, orb.Point{11, 10}))
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
}

// floydWarshall computes all-pairs shortest costs for cross-checking.
func floydWarshall(g *graph.Graph) [][]float64 {
	n := int(g.NumNodes)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			d[i][j] = math.Inf(1)
		}
		d[i][i] = 0
	}
	for i := range n {
		from, to := g.ArcsFrom(uint32(i))
		for a := from; a < to; a++ {
			j := g.Head[a]
			w := g.Edges[g.EdgeOf[a]].Weight
			if w < d[i][j] {
				d[i][j] = w
			}
		}
	}
	for k := range n {
		for i := range n {
			for j := range n {
				if d[i][k]+d[k][j] < d[i][j] {
					d[i][j] = d[i][k] + d[k][j]
				}
			}
		}
	}
	return d
}

func TestShortestPathMatchesFloydWarshall(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var pts []orb.Point
	for i := range 30 {
		pts = append(pts, orb.Point{float64(i % 6), float64(i / 6)})
	}
	var edges []graph.Edge
	for range 70 {
		u, v := pts[rng.Intn(len(pts))], pts[rng.Intn(len(pts))]
		edges = append(edges, edge(u, v, float64(1+rng.Intn(50))))
	}
	g, err := graph.Build(edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := floydWarshall(g)
	for s := uint32(0); s < g.NumNodes; s++ {
		for e := uint32(0); e < g.NumNodes; e++ {
			p, err := ShortestPath(g, s, e)
			if math.IsInf(want[s][e], 1) {
				if !errors.Is(err, ErrNoRoute) {
					t.Errorf("%d->%d: err = %v, want ErrNoRoute", s, e, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%d->%d: %v", s, e, err)
				continue
			}
			if p.Cost != want[s][e] {
				t.Errorf("%d->%d: cost = %v, want %v", s, e, p.Cost, want[s][e])
			}
		}
	}
}

func BenchmarkShortestPath(b *testing.B) {
	const side = 60
	var edges []graph.Edge
	for y := range side {
		for x := range side {
			p := orb.Point{float64(x), float64(y)}
			if x+1 < side {
				edges = append(edges, edge(p, orb.Point{float64(x + 1), float64(y)}, float64(1+(x*y)%7)))
			}
			if y+1 < side {
				edges = append(edges, edge(p, orb.Point{float64(x), float64(y + 1)}, float64(1+(x+y)%5)))
			}
		}
	}
	g, err := graph.Build(edges)
	if err != nil {
		b.Fatalf("Build: %v", err)
	}
	end := g.NumNodes - 1

	for b.Loop() {
		if _, err := ShortestPath(g, 0, end); err != nil {
			b.Fatal(err)
		}
	}
}
