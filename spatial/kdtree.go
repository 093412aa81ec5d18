package spatial

import (
	"math"
	"slices"

	"github.com/hupe1980/trickle/distance"
	"github.com/hupe1980/trickle/queue"
)

// kdNode is a flat-slice tree node. Leaves own the point range [lo, hi).
type kdNode struct {
	lo, hi      int32
	left, right int32
	axis        uint16
	split       float64
}

// KDTree is an exact index backed by a k-d tree stored in flat slices.
type KDTree struct {
	nodes    []kdNode
	points   [][]float64 // reordered during build
	ids      []int       // ids[i] is the input position of points[i]
	dim      int
	leafSize int
	metric   distance.Metric
	dist     distance.Func
}

// NewKDTree builds a KD-tree over points. Points are not copied; callers must
// not mutate them while the tree is in use.
func NewKDTree(points [][]float64, optFns ...func(o *Options)) (*KDTree, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.LeafSize < 1 {
		opts.LeafSize = 1
	}

	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	dim, err := checkDims(points)
	if err != nil {
		return nil, err
	}

	t := &KDTree{
		nodes:    make([]kdNode, 0, 2*len(points)/opts.LeafSize+1),
		points:   slices.Clone(points),
		ids:      make([]int, len(points)),
		dim:      dim,
		leafSize: opts.LeafSize,
		metric:   opts.Metric,
		dist:     dist,
	}
	for i := range t.ids {
		t.ids[i] = i
	}

	if len(points) > 0 {
		t.build(0, len(points), 0)
	}
	return t, nil
}

// Len returns the number of indexed points.
func (t *KDTree) Len() int { return len(t.points) }

func (t *KDTree) build(lo, hi, depth int) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, kdNode{lo: int32(lo), hi: int32(hi), left: -1, right: -1})

	if hi-lo <= t.leafSize || t.dim == 0 {
		return idx
	}

	axis := depth % t.dim
	t.sortRange(lo, hi, axis)
	median := (lo + hi) / 2

	t.nodes[idx].axis = uint16(axis)
	t.nodes[idx].split = t.points[median][axis]

	left := t.build(lo, median, depth+1)
	right := t.build(median, hi, depth+1)
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx
}

// sortRange orders points and ids in [lo, hi) by the given axis.
func (t *KDTree) sortRange(lo, hi, axis int) {
	perm := make([]int, hi-lo)
	for i := range perm {
		perm[i] = lo + i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		pa, pb := t.points[a][axis], t.points[b][axis]
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		default:
			return t.ids[a] - t.ids[b]
		}
	})

	pts := make([][]float64, len(perm))
	ids := make([]int, len(perm))
	for i, p := range perm {
		pts[i] = t.points[p]
		ids[i] = t.ids[p]
	}
	copy(t.points[lo:hi], pts)
	copy(t.ids[lo:hi], ids)
}

// axisBound is a lower bound, in metric units, on the distance to any point
// on the far side of a split plane at offset diff.
func (t *KDTree) axisBound(diff float64) float64 {
	diff = math.Abs(diff)
	if t.metric == distance.MetricSquaredL2 {
		return diff * diff
	}
	return diff
}

// Search returns up to k neighbours of q that pass filter, closest first.
func (t *KDTree) Search(q []float64, k int, filter Filter) []Neighbor {
	if k <= 0 || len(t.nodes) == 0 {
		return nil
	}
	best := queue.NewBounded(k)
	t.search(0, q, best, filter)
	return drainNeighbors(best)
}

func (t *KDTree) search(ni int32, q []float64, best *queue.Bounded, filter Filter) {
	n := &t.nodes[ni]
	if n.left < 0 {
		for i := n.lo; i < n.hi; i++ {
			id := t.ids[i]
			if filter != nil && !filter(id) {
				continue
			}
			best.Offer(id, t.dist(q, t.points[i]))
		}
		return
	}

	diff := q[n.axis] - n.split
	near, far := n.left, n.right
	if diff >= 0 {
		near, far = n.right, n.left
	}

	t.search(near, q, best, filter)
	if !best.Full() || t.axisBound(diff) <= best.Worst() {
		t.search(far, q, best, filter)
	}
}

// Radius returns the ids of all points within r of q, in ascending id order.
func (t *KDTree) Radius(q []float64, r float64) []int {
	if len(t.nodes) == 0 {
		return nil
	}
	var out []int
	t.radius(0, q, r, &out)
	slices.Sort(out)
	return out
}

func (t *KDTree) radius(ni int32, q []float64, r float64, out *[]int) {
	n := &t.nodes[ni]
	if n.left < 0 {
		for i := n.lo; i < n.hi; i++ {
			if t.dist(q, t.points[i]) <= r {
				*out = append(*out, t.ids[i])
			}
		}
		return
	}

	diff := q[n.axis] - n.split
	bound := t.axisBound(diff)
	if diff < 0 {
		t.radius(n.left, q, r, out)
		if bound <= r {
			t.radius(n.right, q, r, out)
		}
		return
	}
	t.radius(n.right, q, r, out)
	if bound <= r {
		t.radius(n.left, q, r, out)
	}
}
