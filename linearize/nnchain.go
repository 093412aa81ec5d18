package linearize

import (
	"context"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/spatial"
)

// NearestNeighbor walks a greedy nearest-neighbour chain starting at the
// first input record, approximating a travelling-salesperson tour.
type NearestNeighbor struct {
	cfg Config
}

// Kind implements Linearizer.
func (*NearestNeighbor) Kind() Kind { return KindNearestNeighbor }

// Linearize implements Linearizer.
func (l *NearestNeighbor) Linearize(ctx context.Context, records []model.Record) ([]model.Record, error) {
	cfg, err := prepare(records, l.cfg)
	if err != nil {
		return nil, err
	}
	points, err := normalize(records, cfg.Dimensions)
	if err != nil {
		return nil, err
	}

	idx, err := spatial.New(cfg.Index, points, func(o *spatial.Options) {
		o.Seed = cfg.Seed
	})
	if err != nil {
		return nil, model.WrapDataError(model.StageLinearization, err)
	}

	order, err := chain(ctx, idx, points, min(cfg.Lookahead, len(points)))
	if err != nil {
		return nil, err
	}

	out := make([]model.Record, len(order))
	for i, j := range order {
		out[i] = records[j]
	}
	return out, nil
}

// chain returns the visiting order of points. Each step consults the k
// nearest neighbours of the current point and falls back to a filtered
// nearest-unvisited query when all of them were visited.
func chain(ctx context.Context, idx spatial.Index, points [][]float64, k int) ([]int, error) {
	n := len(points)
	visited := bitset.New(uint(n))
	unvisited := func(id int) bool { return !visited.Test(uint(id)) }

	order := make([]int, 0, n)
	cur := 0
	visited.Set(0)
	order = append(order, 0)

	for len(order) < n {
		if len(order)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		next := -1
		for _, nb := range idx.Search(points[cur], k, nil) {
			if unvisited(nb.ID) {
				next = nb.ID
				break
			}
		}
		if next < 0 {
			res := idx.Search(points[cur], 1, unvisited)
			if len(res) == 0 {
				return nil, model.NewDataError(model.StageLinearization,
					"spatial index lost %d unvisited records", n-len(order))
			}
			next = res[0].ID
		}

		visited.Set(uint(next))
		order = append(order, next)
		cur = next
	}
	return order, nil
}
