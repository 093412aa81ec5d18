package graphkit

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Toolkit is the set of graph subroutines the graph linearizations depend on.
type Toolkit interface {
	// ConnectedComponents returns the components of g, each sorted ascending,
	// ordered by their smallest node id.
	ConnectedComponents(g *Graph) [][]int64
	// FindCycle returns the nodes of one cycle in traversal order, or nil if g is a forest.
	FindCycle(g *Graph) []int64
	// MinimumSpanningTree returns a minimum spanning forest of g over all its nodes.
	MinimumSpanningTree(g *Graph) *Graph
	// ShortestPath returns the lowest-weight path from u to v inclusive and
	// false if v is unreachable.
	ShortestPath(g *Graph, u, v int64) ([]int64, bool)
}

// Gonum implements Toolkit with gonum.org/v1/gonum/graph.
type Gonum struct{}

var _ Toolkit = Gonum{}

// ConnectedComponents implements Toolkit.
func (Gonum) ConnectedComponents(g *Graph) [][]int64 {
	comps := topo.ConnectedComponents(g.g)
	out := make([][]int64, 0, len(comps))
	for _, c := range comps {
		ids := make([]int64, len(c))
		for i, n := range c {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		out = append(out, ids)
	}
	slices.SortFunc(out, func(a, b []int64) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		default:
			return 0
		}
	})
	return out
}

// FindCycle implements Toolkit.
func (Gonum) FindCycle(g *Graph) []int64 {
	cycles := topo.UndirectedCyclesIn(g.g)
	if len(cycles) == 0 {
		return nil
	}

	// Pick the cycle whose smallest node is lowest so the choice does not
	// depend on map iteration inside the library.
	best := -1
	var bestMin int64
	for i, c := range cycles {
		m := c[0].ID()
		for _, n := range c {
			m = min(m, n.ID())
		}
		if best < 0 || m < bestMin {
			best, bestMin = i, m
		}
	}

	c := cycles[best]
	// Gonum closes cycles by repeating the first node.
	if len(c) > 1 && c[0].ID() == c[len(c)-1].ID() {
		c = c[:len(c)-1]
	}
	ids := make([]int64, len(c))
	for i, n := range c {
		ids[i] = n.ID()
	}

	// Rotate so the cycle starts at its smallest node.
	start := slices.Index(ids, bestMin)
	return append(ids[start:], ids[:start]...)
}

// MinimumSpanningTree implements Toolkit.
func (Gonum) MinimumSpanningTree(g *Graph) *Graph {
	dst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(dst, g.g)

	tree := &Graph{g: dst}
	for _, id := range g.Nodes() {
		tree.AddNode(id)
	}
	return tree
}

// ShortestPath implements Toolkit.
func (Gonum) ShortestPath(g *Graph, u, v int64) ([]int64, bool) {
	if g.g.Node(u) == nil || g.g.Node(v) == nil {
		return nil, false
	}
	if u == v {
		return []int64{u}, true
	}

	shortest := path.DijkstraFrom(simple.Node(u), g.g)
	nodes, _ := shortest.To(v)
	if len(nodes) == 0 {
		return nil, false
	}
	return nodeIDs(nodes), true
}

func nodeIDs(nodes []graph.Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return ids
}
