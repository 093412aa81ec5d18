package linearize

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/trickle/graphkit"
	"github.com/hupe1980/trickle/model"
)

// Graph linearizes an edge list. Each input record is one edge whose
// endpoints are read from the Source and Target attributes; the output
// holds one record per node: {rank, node id}, where rank is the node's
// position among all node ids in ascending order.
type Graph struct {
	cfg     Config
	toolkit graphkit.Toolkit
}

// Kind implements Linearizer.
func (l *Graph) Kind() Kind { return l.cfg.Kind }

// Linearize implements Linearizer.
func (l *Graph) Linearize(ctx context.Context, records []model.Record) ([]model.Record, error) {
	cfg, err := prepare(records, l.cfg)
	if err != nil {
		return nil, err
	}

	edges := make([]graphkit.Edge, len(records))
	for i, r := range records {
		u, err := nodeID(r[cfg.Source])
		if err != nil {
			return nil, model.NewDataError(model.StageLinearization, "edge %d source: %v", i, err)
		}
		v, err := nodeID(r[cfg.Target])
		if err != nil {
			return nil, model.NewDataError(model.StageLinearization, "edge %d target: %v", i, err)
		}
		// Input position as weight keeps the spanning tree deterministic.
		edges[i] = graphkit.Edge{From: u, To: v, Weight: float64(i)}
	}

	g := graphkit.FromEdges(edges)
	nodes := g.Nodes()

	var order []int64
	switch cfg.Kind {
	case KindGraphEdgeUnaware:
		order = nodes
	case KindGraphRandom:
		order = slices.Clone(nodes)
		rng := rand.New(rand.NewPCG(cfg.Seed, 0))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	case KindGraphSpanningTree:
		l.connect(g, float64(len(edges)))
		tree := l.toolkit.MinimumSpanningTree(g)
		order = preorder(tree, edges[0].From)
	case KindGraphBasic, KindGraphWeighted:
		l.connect(g, float64(len(edges)))
		if err := l.removeCycles(ctx, g); err != nil {
			return nil, err
		}
		var reduced *graphkit.Graph
		if cfg.Kind == KindGraphBasic {
			reduced, err = reduceDirected(ctx, g, cfg.MaxRounds)
		} else {
			reduced, err = reduceWeighted(ctx, g, cfg.MaxRounds)
		}
		if err != nil {
			return nil, err
		}
		order, err = l.pathOrder(reduced)
		if err != nil {
			return nil, err
		}
	}

	rank := make(map[int64]int, len(nodes))
	for i, id := range nodes {
		rank[id] = i
	}
	out := make([]model.Record, len(order))
	for i, id := range order {
		out[i] = model.Record{float64(rank[id]), float64(id)}
	}
	return out, nil
}

func nodeID(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, model.NewDataError(model.StageLinearization, "node id %v is not an integer", v)
	}
	return int64(v), nil
}

// connect bridges consecutive connected components through their smallest
// node. Bridges weigh more than every input edge.
func (l *Graph) connect(g *graphkit.Graph, base float64) {
	comps := l.toolkit.ConnectedComponents(g)
	for i := 1; i < len(comps); i++ {
		g.AddEdge(comps[i-1][0], comps[i][0], base+float64(i))
	}
}

// removeCycles deletes the first edge of a cycle until g is a forest.
func (l *Graph) removeCycles(ctx context.Context, g *graphkit.Graph) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := l.toolkit.FindCycle(g)
		if len(c) < 2 {
			return nil
		}
		g.RemoveEdge(c[0], c[1])
	}
}

// pathOrder returns the shortest path between the first two connected
// degree-1 endpoints, followed by any nodes off that path in id order.
func (l *Graph) pathOrder(g *graphkit.Graph) ([]int64, error) {
	nodes := g.Nodes()
	if len(nodes) == 1 {
		return nodes, nil
	}

	var endpoints []int64
	for _, n := range nodes {
		if g.Degree(n) == 1 {
			endpoints = append(endpoints, n)
		}
	}
	if len(endpoints) < 2 {
		return nil, model.NewDataError(model.StageLinearization,
			"degree reduction produced %d endpoints, need 2", len(endpoints))
	}

	path := []int64{endpoints[0]}
	for _, e := range endpoints[1:] {
		if p, ok := l.toolkit.ShortestPath(g, endpoints[0], e); ok {
			path = p
			break
		}
	}

	on := make(map[int64]struct{}, len(path))
	for _, n := range path {
		on[n] = struct{}{}
	}
	for _, n := range nodes {
		if _, ok := on[n]; !ok {
			path = append(path, n)
		}
	}
	return path, nil
}

// preorder is a depth-first preorder of t from root, visiting neighbours in
// ascending id order. Unreached nodes follow in id order.
func preorder(t *graphkit.Graph, root int64) []int64 {
	seen := make(map[int64]struct{}, t.Order())
	out := make([]int64, 0, t.Order())
	stack := []int64{root}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)

		nb := t.Neighbors(u)
		for i := len(nb) - 1; i >= 0; i-- {
			if _, ok := seen[nb[i]]; !ok {
				stack = append(stack, nb[i])
			}
		}
	}
	for _, n := range t.Nodes() {
		if _, ok := seen[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
