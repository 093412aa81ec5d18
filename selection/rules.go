package selection

import (
	"math/rand/v2"

	"github.com/hupe1980/trickle/model"
)

// pick returns n distinct positions of bucket k according to the element
// rule. Ordered rules choose from the sorted view and map the chosen records
// back to their bucket positions.
func (s *Selector) pick(k, n int, rng *rand.Rand) []int {
	bucket := s.part.Bucket(k)
	size := len(bucket)
	n = min(n, size)

	var idx []int
	switch s.cfg.Kind {
	case KindRandom:
		return rng.Perm(size)[:n]
	case KindSpatialAutocorrelation:
		return quadrants(bucket, n, s.cfg.ValueHigh, s.cfg.LagHigh, rng)
	case KindFirst:
		return span(0, n)
	case KindMaximum:
		idx = make([]int, n)
		for i := range idx {
			idx[i] = size - 1 - i
		}
	case KindMedian:
		idx = window(size, n)
	default: // KindMinimum
		idx = span(0, n)
	}

	view := s.views[k]
	at := make(map[*float64]int, size)
	for i, r := range bucket {
		at[&r[0]] = i
	}
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = at[&view[j][0]]
	}
	return out
}

func span(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// window returns n positions centred on size/2. For even n the extra
// position falls right of centre.
func window(size, n int) []int {
	if size <= n {
		return span(0, size)
	}
	start := size/2 - (n-1)/2
	start = max(0, min(start, size-n))
	return span(start, n)
}

// quadrants takes up to ⌈n/4⌉ positions from each non-empty quadrant of
// the (value high, lag high) plane, shuffles them and keeps n.
func quadrants(bucket []model.Record, n, valueHigh, lagHigh int, rng *rand.Rand) []int {
	per := max(1, (n+3)/4)
	var (
		taken [4]int
		cand  []int
	)
	for i, r := range bucket {
		q := 0
		if r[valueHigh] != 0 {
			q |= 1
		}
		if r[lagHigh] != 0 {
			q |= 2
		}
		if taken[q] < per {
			taken[q]++
			cand = append(cand, i)
		}
	}
	rng.Shuffle(len(cand), func(i, j int) { cand[i], cand[j] = cand[j], cand[i] })
	return cand[:min(n, len(cand))]
}
