package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in x's set.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// labelComponents assigns each node a dense component label, numbered in
// order of each component's lowest node index, and reports the label count
// and the node count of the largest component.
func labelComponents(g *Graph) (labels []uint32, count, largest uint32) {
	uf := NewUnionFind(g.NumNodes)
	for _, e := range g.Edges {
		u, _ := g.NodeID(e.U)
		v, _ := g.NodeID(e.V)
		uf.Union(u, v)
	}

	labels = make([]uint32, g.NumNodes)
	rootLabel := make(map[uint32]uint32)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		l, ok := rootLabel[root]
		if !ok {
			l = uint32(len(rootLabel))
			rootLabel[root] = l
			largest = max(largest, uf.Size(root))
		}
		labels[i] = l
	}
	return labels, uint32(len(rootLabel)), largest
}

// LargestComponentSize returns the node count of the largest connected
// component.
func (g *Graph) LargestComponentSize() uint32 { return g.largest }
