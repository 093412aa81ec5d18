package spatial

import (
	"fmt"
	"strings"

	"github.com/hupe1980/trickle/distance"
	"github.com/hupe1980/trickle/queue"
)

// Neighbor is a query result.
type Neighbor struct {
	ID       int
	Distance float64
}

// Filter reports whether the point id may be returned.
type Filter func(id int) bool

// Index answers nearest-neighbour queries over the points it was built from.
// Point ids are positions in the input slice.
type Index interface {
	// Search returns up to k neighbours of q that pass filter, closest first.
	// A nil filter accepts every point.
	Search(q []float64, k int, filter Filter) []Neighbor
	// Len returns the number of indexed points.
	Len() int
}

// Kind selects an Index implementation.
type Kind int

const (
	KindKDTree Kind = iota
	KindHNSW
)

func (k Kind) String() string {
	switch k {
	case KindKDTree:
		return "kdtree"
	case KindHNSW:
		return "hnsw"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// ParseKind resolves an index kind by name.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "", "kdtree", "kd":
		return KindKDTree, nil
	case "hnsw":
		return KindHNSW, nil
	default:
		return 0, fmt.Errorf("unknown index kind %q", name)
	}
}

// Options configures index construction.
type Options struct {
	// Metric is the point distance. Defaults to MetricL2.
	Metric distance.Metric
	// LeafSize bounds the number of points held by a KD-tree leaf.
	LeafSize int
	// Seed drives the HNSW level generator.
	Seed uint64
	// HNSW holds graph parameters for KindHNSW.
	HNSW HNSWOptions
}

// DefaultOptions are used by New before applying option functions.
var DefaultOptions = Options{
	Metric:   distance.MetricL2,
	LeafSize: 16,
	HNSW:     DefaultHNSWOptions,
}

// New builds an index of the requested kind over points.
func New(kind Kind, points [][]float64, optFns ...func(o *Options)) (Index, error) {
	switch kind {
	case KindKDTree:
		return NewKDTree(points, optFns...)
	case KindHNSW:
		return NewHNSW(points, optFns...)
	default:
		return nil, fmt.Errorf("unsupported index kind: %v", kind)
	}
}

func drainNeighbors(b *queue.Bounded) []Neighbor {
	items := b.Drain()
	out := make([]Neighbor, len(items))
	for i, it := range items {
		out[i] = Neighbor{ID: it.Node, Distance: it.Distance}
	}
	return out
}

func checkDims(points [][]float64) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return 0, &ErrDimensionMismatch{Expected: dim, Actual: len(p), Point: i}
		}
	}
	return dim, nil
}

// ErrDimensionMismatch reports a point whose length differs from the first point.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	Point    int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch at point %d: expected %d, got %d", e.Point, e.Expected, e.Actual)
}
