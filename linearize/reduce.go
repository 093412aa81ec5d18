package linearize

import (
	"context"
	"slices"

	"github.com/hupe1980/trickle/graphkit"
	"github.com/hupe1980/trickle/model"
)

// digraph is a directed adjacency view used by the basic degree reduction.
type digraph struct {
	succ map[int64]map[int64]struct{}
	pred map[int64]map[int64]struct{}
}

func newDigraph(g *graphkit.Graph) *digraph {
	d := &digraph{
		succ: make(map[int64]map[int64]struct{}),
		pred: make(map[int64]map[int64]struct{}),
	}
	for _, n := range g.Nodes() {
		d.succ[n] = make(map[int64]struct{})
		d.pred[n] = make(map[int64]struct{})
	}
	// Edges are reported with From < To, orienting every edge upwards.
	for _, e := range g.Edges() {
		d.add(e.From, e.To)
	}
	return d
}

func (d *digraph) add(u, v int64) {
	if u == v {
		return
	}
	d.succ[u][v] = struct{}{}
	d.pred[v][u] = struct{}{}
}

func (d *digraph) remove(u, v int64) {
	delete(d.succ[u], v)
	delete(d.pred[v], u)
}

func (d *digraph) degree(n int64) int {
	return len(d.succ[n]) + len(d.pred[n])
}

func sortedKeys(m map[int64]struct{}) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// reduceDirected replaces every multi-predecessor fan-in with a chain
// u1 -> u2 -> ... -> n and every multi-successor fan-out with a chain
// n -> w1 -> ... -> wm until no node has degree above 2. It returns the
// undirected view of the result.
func reduceDirected(ctx context.Context, g *graphkit.Graph, maxRounds int) (*graphkit.Graph, error) {
	nodes := g.Nodes()
	d := newDigraph(g)

	maxDegree := func() int {
		m := 0
		for _, n := range nodes {
			m = max(m, d.degree(n))
		}
		return m
	}

	for round := 0; maxDegree() > 2; round++ {
		if round >= maxRounds {
			return nil, model.NewDataError(model.StageLinearization,
				"degree reduction did not converge in %d rounds", maxRounds)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, n := range nodes {
			left := sortedKeys(d.pred[n])
			if len(left) < 2 {
				continue
			}
			for _, u := range left {
				d.remove(u, n)
			}
			for i := 0; i < len(left)-1; i++ {
				d.add(left[i], left[i+1])
			}
			d.add(left[len(left)-1], n)
		}

		for _, n := range nodes {
			right := sortedKeys(d.succ[n])
			if len(right) < 2 {
				continue
			}
			for _, w := range right {
				d.remove(n, w)
			}
			d.add(n, right[0])
			for i := 1; i < len(right); i++ {
				d.add(right[i-1], right[i])
			}
		}
	}

	out := graphkit.NewGraph()
	for _, n := range nodes {
		out.AddNode(n)
		for v := range d.succ[n] {
			out.AddEdge(n, v, 1)
		}
	}
	return out, nil
}

// reduceWeighted rebuilds the graph each round: for every node n, the
// neighbours below n are chained in ascending order ending at n and the
// neighbours above n are chained in ascending order starting at n.
func reduceWeighted(ctx context.Context, g *graphkit.Graph, maxRounds int) (*graphkit.Graph, error) {
	nodes := g.Nodes()
	cur := g

	maxDegree := func(h *graphkit.Graph) int {
		m := 0
		for _, n := range nodes {
			m = max(m, h.Degree(n))
		}
		return m
	}

	for round := 0; maxDegree(cur) > 2; round++ {
		if round >= maxRounds {
			return nil, model.NewDataError(model.StageLinearization,
				"degree reduction did not converge in %d rounds", maxRounds)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := graphkit.NewGraph()
		for _, n := range nodes {
			next.AddNode(n)
		}
		for _, n := range nodes {
			nb := cur.Neighbors(n)
			split, _ := slices.BinarySearch(nb, n+1)
			left, right := nb[:split], nb[split:]

			for i := 0; i+1 < len(left); i++ {
				next.AddEdge(left[i], left[i+1], 1)
			}
			if len(left) > 0 {
				next.AddEdge(left[len(left)-1], n, 1)
			}
			if len(right) > 0 {
				next.AddEdge(n, right[0], 1)
			}
			for i := 1; i < len(right); i++ {
				next.AddEdge(right[i-1], right[i], 1)
			}
		}
		cur = next
	}
	return cur, nil
}
