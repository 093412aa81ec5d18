package graphkit

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Edge is an undirected weighted edge.
type Edge struct {
	From, To int64
	Weight   float64
}

// Graph is a simple undirected weighted graph over int64 node ids.
// Self loops are never stored.
type Graph struct {
	g *simple.WeightedUndirectedGraph
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{g: simple.NewWeightedUndirectedGraph(0, math.Inf(1))}
}

// FromEdges builds a graph from an edge list, skipping self loops after
// registering their node. Later duplicates keep the first weight.
func FromEdges(edges []Edge) *Graph {
	g := NewGraph()
	for _, e := range edges {
		g.AddEdge(e.From, e.To, e.Weight)
	}
	return g
}

// AddNode adds id if it is not present.
func (g *Graph) AddNode(id int64) {
	if g.g.Node(id) == nil {
		g.g.AddNode(simple.Node(id))
	}
}

// AddEdge adds an undirected edge. It reports false for self loops and
// already present edges; the nodes are registered either way.
func (g *Graph) AddEdge(u, v int64, w float64) bool {
	g.AddNode(u)
	g.AddNode(v)
	if u == v || g.g.HasEdgeBetween(u, v) {
		return false
	}
	g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(u), simple.Node(v), w))
	return true
}

// RemoveEdge deletes the edge between u and v if present.
func (g *Graph) RemoveEdge(u, v int64) {
	g.g.RemoveEdge(u, v)
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v int64) bool {
	return g.g.HasEdgeBetween(u, v)
}

// Order returns the number of nodes.
func (g *Graph) Order() int {
	return g.g.Nodes().Len()
}

// Nodes returns all node ids in ascending order.
func (g *Graph) Nodes() []int64 {
	return sortedIDs(g.g.Nodes())
}

// Neighbors returns the ids adjacent to id in ascending order.
func (g *Graph) Neighbors(id int64) []int64 {
	if g.g.Node(id) == nil {
		return nil
	}
	return sortedIDs(g.g.From(id))
}

// Degree returns the number of neighbours of id.
func (g *Graph) Degree(id int64) int {
	if g.g.Node(id) == nil {
		return 0
	}
	return g.g.From(id).Len()
}

// Edges returns every edge once with From < To, sorted by (From, To).
func (g *Graph) Edges() []Edge {
	var out []Edge
	it := g.g.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		u, v := e.From().ID(), e.To().ID()
		if u > v {
			u, v = v, u
		}
		out = append(out, Edge{From: u, To: v, Weight: e.Weight()})
	}
	slices.SortFunc(out, compareEdges)
	return out
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, id := range g.Nodes() {
		c.AddNode(id)
	}
	for _, e := range g.Edges() {
		c.AddEdge(e.From, e.To, e.Weight)
	}
	return c
}

func sortedIDs(it graph.Nodes) []int64 {
	ids := make([]int64, 0, it.Len())
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	slices.Sort(ids)
	return ids
}

func compareEdges(a, b Edge) int {
	if a.From != b.From {
		if a.From < b.From {
			return -1
		}
		return 1
	}
	if a.To != b.To {
		if a.To < b.To {
			return -1
		}
		return 1
	}
	return 0
}
