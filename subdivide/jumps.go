package subdivide

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/trickle/model"
)

// cohesion cuts before the buckets-1 records that lie farthest from their
// predecessor in the dims subspace. Equal jumps prefer the earlier position.
// The jump from the last record back to the first is not a candidate, so
// the linearization is never rotated and buckets-1 cuts yield at most
// buckets buckets.
func cohesion(lin []model.Record, dims []int, buckets int) [][]model.Record {
	n := min(buckets, len(lin))
	if n <= 1 {
		return [][]model.Record{lin}
	}

	type jump struct {
		at   int
		dist float64
	}
	jumps := make([]jump, len(lin)-1)
	prev := model.Subspace(lin[0], dims)
	for i := 1; i < len(lin); i++ {
		cur := model.Subspace(lin[i], dims)
		jumps[i-1] = jump{at: i, dist: floats.Distance(cur, prev, 2)}
		prev = cur
	}
	slices.SortStableFunc(jumps, func(a, b jump) int {
		return cmp.Compare(b.dist, a.dist)
	})

	cuts := make([]int, n-1)
	for i := range cuts {
		cuts[i] = jumps[i].at
	}
	slices.Sort(cuts)
	return cutAt(lin, cuts)
}

// coverage closes a bucket as soon as it has seen a value at or below the
// low quantile and one at or above the high quantile of attr.
func coverage(lin []model.Record, attr int, lowQ, highQ float64) ([][]model.Record, error) {
	values := model.Column(lin, attr)
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, model.NewDataError(model.StageSubdivision, "record %d: attribute %d is NaN", i, attr)
		}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	low := stat.Quantile(lowQ, stat.Empirical, sorted, nil)
	high := stat.Quantile(highQ, stat.Empirical, sorted, nil)

	var out [][]model.Record
	start := 0
	seenLow, seenHigh := false, false
	for i, v := range values {
		seenLow = seenLow || v <= low
		seenHigh = seenHigh || v >= high
		if seenLow && seenHigh {
			out = append(out, lin[start:i+1])
			start = i + 1
			seenLow, seenHigh = false, false
		}
	}
	if start < len(lin) {
		out = append(out, lin[start:])
	}
	return out, nil
}
