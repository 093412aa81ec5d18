package spatial

import (
	"container/heap"
	"math"
	"math/rand/v2"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/trickle/distance"
	"github.com/hupe1980/trickle/queue"
)

// HNSWOptions represents the options for configuring HNSW.
type HNSWOptions struct {
	// M specifies the number of established connections for every new element during construction.
	// The range M=12-48 is ok for most use cases; low-dimensional subspaces work well with M around 6-8.
	M int

	// EFConstruction is the size of the dynamic candidate list while inserting.
	EFConstruction int

	// EFSearch is the size of the dynamic candidate list while querying.
	// Larger values improve recall at the cost of query time.
	EFSearch int

	// Heuristic selects the neighbour-diversity heuristic (true) or the naive k-NN selection (false).
	Heuristic bool
}

// DefaultHNSWOptions holds the graph defaults.
var DefaultHNSWOptions = HNSWOptions{
	M:              8,
	EFConstruction: 200,
	EFSearch:       64,
	Heuristic:      true,
}

type hnswNode struct {
	connections [][]int // links per layer
	layer       int
}

// HNSW is an approximate index based on the Hierarchical Navigable Small World graph.
type HNSW struct {
	points   [][]float64
	nodes    []hnswNode
	mmax     int     // Max number of connections per element/per layer
	mmax0    int     // Max for the 0 layer
	ml       float64 // Normalization factor for level generation
	ep       int     // Entry point
	maxLevel int
	opts     HNSWOptions
	dist     distance.Func
	rng      *rand.Rand
}

// NewHNSW builds an HNSW graph over points, inserting them in input order.
func NewHNSW(points [][]float64, optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}
	if _, err := checkDims(points); err != nil {
		return nil, err
	}

	hopts := opts.HNSW
	if hopts.M < 2 {
		// M == 1 would result in division by zero in the level factor.
		hopts.M = 2
	}
	if hopts.EFConstruction < hopts.M {
		hopts.EFConstruction = hopts.M
	}

	h := &HNSW{
		points: points,
		nodes:  make([]hnswNode, 0, len(points)),
		mmax:   hopts.M,
		mmax0:  2 * hopts.M,
		ml:     1 / math.Log(float64(hopts.M)),
		opts:   hopts,
		dist:   dist,
		rng:    rand.New(rand.NewPCG(opts.Seed, 0x9e3779b97f4a7c15)),
	}

	for i := range points {
		h.insert(i)
	}
	return h, nil
}

// Len returns the number of indexed points.
func (h *HNSW) Len() int { return len(h.nodes) }

func (h *HNSW) insert(id int) {
	layer := int(math.Floor(-math.Log(1-h.rng.Float64()) * h.ml))
	h.nodes = append(h.nodes, hnswNode{layer: layer, connections: make([][]int, layer+1)})

	if id == 0 {
		h.ep = 0
		h.maxLevel = layer
		return
	}

	q := h.points[id]
	curr := h.ep
	currDist := h.dist(q, h.points[curr])

	// Greedy descent through the layers above the new node.
	for level := h.maxLevel; level > layer; level-- {
		curr, currDist = h.greedy(q, curr, currDist, level)
	}

	for level := min(layer, h.maxLevel); level >= 0; level-- {
		top := h.searchLayer(q, curr, currDist, h.opts.EFConstruction, level)

		if h.opts.Heuristic {
			h.selectNeighboursHeuristic(top, h.mmax)
		} else {
			h.selectNeighboursSimple(top, h.mmax)
		}

		links := make([]int, top.Len())
		for i := top.Len() - 1; i >= 0; i-- {
			item, _ := heap.Pop(top).(*queue.PriorityQueueItem)
			links[i] = item.Node
		}
		h.nodes[id].connections[level] = links

		if len(links) > 0 {
			curr = links[0]
			currDist = h.dist(q, h.points[curr])
		}
	}

	// Link the neighbour nodes back to the new node, making it visible.
	for level := min(layer, h.maxLevel); level >= 0; level-- {
		for _, n := range h.nodes[id].connections[level] {
			h.link(n, id, level)
		}
	}

	if layer > h.maxLevel {
		h.ep = id
		h.maxLevel = layer
	}
}

func (h *HNSW) greedy(q []float64, curr int, currDist float64, level int) (int, float64) {
	changed := true
	for changed {
		changed = false
		for _, n := range h.nodes[curr].connections[level] {
			if d := h.dist(q, h.points[n]); d < currDist {
				curr, currDist = n, d
				changed = true
			}
		}
	}
	return curr, currDist
}

func (h *HNSW) link(first, second, level int) {
	maxConnections := h.mmax
	// HNSW allows double the connections for the bottom level (0)
	if level == 0 {
		maxConnections = h.mmax0
	}

	node := &h.nodes[first]
	node.connections[level] = append(node.connections[level], second)
	if len(node.connections[level]) <= maxConnections {
		return
	}

	top := &queue.PriorityQueue{Order: true}
	for _, id := range node.connections[level] {
		heap.Push(top, &queue.PriorityQueueItem{Node: id, Distance: h.dist(h.points[first], h.points[id])})
	}

	if h.opts.Heuristic {
		h.selectNeighboursHeuristic(top, maxConnections)
	} else {
		h.selectNeighboursSimple(top, maxConnections)
	}

	links := make([]int, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		item, _ := heap.Pop(top).(*queue.PriorityQueueItem)
		links[i] = item.Node
	}
	node.connections[level] = links
}

// searchLayer returns a max-heap holding the ef closest nodes found on level.
func (h *HNSW) searchLayer(q []float64, ep int, epDist float64, ef, level int) *queue.PriorityQueue {
	var visited bitset.BitSet
	visited.Set(uint(ep))

	candidates := &queue.PriorityQueue{Order: false}
	heap.Push(candidates, &queue.PriorityQueueItem{Node: ep, Distance: epDist})

	top := &queue.PriorityQueue{Order: true}
	heap.Push(top, &queue.PriorityQueueItem{Node: ep, Distance: epDist})

	for candidates.Len() > 0 {
		candidate, _ := heap.Pop(candidates).(*queue.PriorityQueueItem)
		if candidate.Distance > top.Top().Distance {
			break
		}

		node := h.nodes[candidate.Node]
		if len(node.connections) <= level {
			continue
		}

		for _, n := range node.connections[level] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			d := h.dist(q, h.points[n])
			if top.Len() < ef {
				heap.Push(top, &queue.PriorityQueueItem{Node: n, Distance: d})
				heap.Push(candidates, &queue.PriorityQueueItem{Node: n, Distance: d})
			} else if d < top.Top().Distance {
				heap.Pop(top)
				heap.Push(top, &queue.PriorityQueueItem{Node: n, Distance: d})
				heap.Push(candidates, &queue.PriorityQueueItem{Node: n, Distance: d})
			}
		}
	}
	return top
}

// selectNeighboursSimple keeps the M closest candidates of a max-heap.
func (h *HNSW) selectNeighboursSimple(top *queue.PriorityQueue, m int) {
	for top.Len() > m {
		heap.Pop(top)
	}
}

// selectNeighboursHeuristic keeps up to M candidates of a max-heap, preferring
// candidates that are closer to the base than to any already selected neighbour.
func (h *HNSW) selectNeighboursHeuristic(top *queue.PriorityQueue, m int) {
	if top.Len() <= m {
		return
	}

	ascending := &queue.PriorityQueue{Order: false}
	for top.Len() > 0 {
		heap.Push(ascending, heap.Pop(top))
	}

	selected := make([]*queue.PriorityQueueItem, 0, m)
	var discarded []*queue.PriorityQueueItem

	for ascending.Len() > 0 && len(selected) < m {
		item, _ := heap.Pop(ascending).(*queue.PriorityQueueItem)
		keep := true
		for _, s := range selected {
			if h.dist(h.points[s.Node], h.points[item.Node]) < item.Distance {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, item)
		} else {
			discarded = append(discarded, item)
		}
	}

	for i := 0; len(selected) < m && i < len(discarded); i++ {
		selected = append(selected, discarded[i])
	}

	for _, item := range selected {
		heap.Push(top, item)
	}
}

// Search returns up to k approximate neighbours of q that pass filter.
// When the graph walk yields fewer than k admissible points, the remainder is
// completed by an exact scan so filtered queries still return the nearest
// admissible point.
func (h *HNSW) Search(q []float64, k int, filter Filter) []Neighbor {
	if k <= 0 || len(h.nodes) == 0 {
		return nil
	}

	curr := h.ep
	currDist := h.dist(q, h.points[curr])
	for level := h.maxLevel; level > 0; level-- {
		curr, currDist = h.greedy(q, curr, currDist, level)
	}

	top := h.searchLayer(q, curr, currDist, max(h.opts.EFSearch, k), 0)

	best := queue.NewBounded(k)
	for _, item := range top.Items {
		if filter == nil || filter(item.Node) {
			best.Offer(item.Node, item.Distance)
		}
	}
	if best.Full() || (filter == nil && len(h.nodes) <= k) {
		return drainNeighbors(best)
	}

	return h.BruteSearch(q, k, filter)
}

// BruteSearch performs an exact scan over all points.
func (h *HNSW) BruteSearch(q []float64, k int, filter Filter) []Neighbor {
	best := queue.NewBounded(k)
	for id := range h.nodes {
		if filter != nil && !filter(id) {
			continue
		}
		best.Offer(id, h.dist(q, h.points[id]))
	}
	return drainNeighbors(best)
}
