package subdivide

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/trickle/model"
)

// binner digitizes one attribute into equal-width histogram bins over its
// observed range.
type binner struct {
	edges []float64
}

func newBinner(values []float64, bins int) (binner, error) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return binner{}, model.NewDataError(model.StageSubdivision, "non-finite value %v", v)
		}
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return binner{}, nil
	}
	return binner{edges: floats.Span(make([]float64, bins+1), lo, hi)}, nil
}

func (b binner) bin(v float64) int {
	if b.edges == nil {
		return 0
	}
	if i := floats.Within(b.edges, v); i >= 0 {
		return i
	}
	if v >= b.edges[len(b.edges)-1] {
		return len(b.edges) - 2
	}
	return 0
}

// stratified groups records by the most frequent bin across dims. Ties go
// to the lowest bin; groups are emitted in bin order.
func stratified(lin []model.Record, dims []int, bins int) ([][]model.Record, error) {
	binners := make([]binner, len(dims))
	for i, d := range dims {
		b, err := newBinner(model.Column(lin, d), bins)
		if err != nil {
			return nil, err
		}
		binners[i] = b
	}

	groups := make([][]model.Record, bins)
	counts := make([]int, bins)
	for _, r := range lin {
		clear(counts)
		for i, d := range dims {
			counts[binners[i].bin(r[d])]++
		}
		mode := 0
		for l, c := range counts {
			if c > counts[mode] {
				mode = l
			}
		}
		groups[mode] = append(groups[mode], r)
	}
	return groups, nil
}

// interval cuts lin wherever the bin of attr changes. The linearization is
// expected to be sorted by attr; otherwise bins split into several runs.
func interval(lin []model.Record, attr, bins int) ([][]model.Record, error) {
	b, err := newBinner(model.Column(lin, attr), bins)
	if err != nil {
		return nil, err
	}
	var cuts []int
	prev := b.bin(lin[0][attr])
	for i := 1; i < len(lin); i++ {
		cur := b.bin(lin[i][attr])
		if cur != prev {
			cuts = append(cuts, i)
		}
		prev = cur
	}
	return cutAt(lin, cuts), nil
}
