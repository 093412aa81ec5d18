package linearize

import (
	"context"
	"math"
	"math/bits"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/trickle/model"
)

// zBits is the bisection depth per dimension; it matches the float64
// mantissa so deeper levels cannot separate distinct normalised values.
const zBits = 52

// ZOrder sorts records along a Morton (Z-order) curve over a normalised subspace.
type ZOrder struct {
	cfg Config
}

// Kind implements Linearizer.
func (l *ZOrder) Kind() Kind { return l.cfg.Kind }

// Linearize implements Linearizer.
func (l *ZOrder) Linearize(_ context.Context, records []model.Record) ([]model.Record, error) {
	cfg, err := prepare(records, l.cfg)
	if err != nil {
		return nil, err
	}
	points, err := normalize(records, cfg.Dimensions)
	if err != nil {
		return nil, err
	}

	type keyed struct {
		rec  model.Record
		code []uint64
	}
	items := make([]keyed, len(records))
	codes := make([]uint64, len(records)*len(cfg.Dimensions))
	for i, p := range points {
		c := codes[i*len(p) : (i+1)*len(p) : (i+1)*len(p)]
		for d, x := range p {
			c[d] = zcode(x)
		}
		items[i] = keyed{rec: records[i], code: c}
	}

	slices.SortStableFunc(items, func(a, b keyed) int { return CompareZ(a.code, b.code) })

	out := make([]model.Record, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out, nil
}

// zcode maps x in [0,1] to the index of the bisection cell that contains it,
// counting a value on a midpoint as belonging to the lower half.
func zcode(x float64) uint64 {
	c := math.Ceil(math.Ldexp(x, zBits)) - 1
	if c <= 0 {
		return 0
	}
	return uint64(c)
}

// CompareZ orders two per-dimension cell codes along the Z-order curve.
//
// At each bisection level the bits are interleaved with the highest
// dimension most significant, so the first differing level is found as the
// highest differing bit across dimensions, ties going to the higher dimension.
func CompareZ(a, b []uint64) int {
	best, bestLen := -1, 0
	for d := range a {
		if n := bits.Len64(a[d] ^ b[d]); n > 0 && n >= bestLen {
			best, bestLen = d, n
		}
	}
	switch {
	case best < 0:
		return 0
	case a[best] < b[best]:
		return -1
	default:
		return 1
	}
}

// ZCode returns the per-dimension cell codes of a normalised point.
func ZCode(p []float64) []uint64 {
	c := make([]uint64, len(p))
	for i, x := range p {
		c[i] = zcode(x)
	}
	return c
}

// normalize projects records onto dims and rescales each dimension to [0,1]
// using the observed extrema. A constant dimension contributes 0.
func normalize(records []model.Record, dims []int) ([][]float64, error) {
	k := len(dims)
	flat := make([]float64, len(records)*k)
	points := make([][]float64, len(records))
	for i := range points {
		points[i] = flat[i*k : (i+1)*k : (i+1)*k]
	}

	for j, d := range dims {
		col := model.Column(records, d)
		if !finite(col) {
			return nil, model.NewDataError(model.StageLinearization,
				"attribute %d has non-finite values", d)
		}
		lo, hi := floats.Min(col), floats.Max(col)
		span := hi - lo
		if span == 0 {
			continue
		}
		for i, v := range col {
			points[i][j] = (v - lo) / span
		}
	}
	return points, nil
}

func finite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
