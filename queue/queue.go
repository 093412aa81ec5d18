// Package queue provides the binary-heap priority queue shared by the spatial indexes.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue)(nil)

// PriorityQueueItem represents an item in the priority queue.
type PriorityQueueItem struct {
	Node     int     // Node is the point id carried by the item.
	Distance float64 // Distance is the priority of the item in the queue.
	Index    int     // Index is needed by update and is maintained by the heap.Interface methods.
}

// Closer reports whether a ranks before b in ascending (distance, node) order.
// Equal distances fall back to the smaller node id so results are reproducible.
func Closer(a, b *PriorityQueueItem) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Node < b.Node
}

// PriorityQueue implements heap.Interface and holds PriorityQueueItems.
type PriorityQueue struct {
	Order bool                 // Order selects a max-heap when true, a min-heap otherwise.
	Items []*PriorityQueueItem // Items contains the elements of the priority queue.
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.Items) }

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	if !pq.Order {
		return Closer(pq.Items[i], pq.Items[j])
	}
	return Closer(pq.Items[j], pq.Items[i])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.Items[i], pq.Items[j] = pq.Items[j], pq.Items[i]
	pq.Items[i].Index, pq.Items[j].Index = i, j
}

// Push adds x to the priority queue.
func (pq *PriorityQueue) Push(x any) {
	item, _ := x.(*PriorityQueueItem)
	item.Index = len(pq.Items)
	pq.Items = append(pq.Items, item)
}

// Pop removes and returns the top element from the priority queue.
func (pq *PriorityQueue) Pop() any {
	if len(pq.Items) == 0 {
		return nil
	}

	old := pq.Items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // Avoid memory leak
	item.Index = -1 // For safety
	pq.Items = old[:n-1]

	return item
}

// Top returns the top element of the priority queue.
func (pq *PriorityQueue) Top() *PriorityQueueItem {
	return pq.Items[0]
}

// Bounded keeps the k best (closest) items seen so far in a max-heap.
type Bounded struct {
	k  int
	pq PriorityQueue
}

// NewBounded creates a bounded collector for the k closest items.
func NewBounded(k int) *Bounded {
	return &Bounded{k: k, pq: PriorityQueue{Order: true, Items: make([]*PriorityQueueItem, 0, k)}}
}

// Full reports whether k items have been collected.
func (b *Bounded) Full() bool { return b.pq.Len() >= b.k }

// Worst returns the distance of the furthest collected item.
// It must only be called when Full reports true.
func (b *Bounded) Worst() float64 { return b.pq.Top().Distance }

// Offer adds the item if fewer than k items are held or it beats the current worst.
func (b *Bounded) Offer(node int, dist float64) {
	if b.k <= 0 {
		return
	}
	item := &PriorityQueueItem{Node: node, Distance: dist}
	if b.pq.Len() < b.k {
		heap.Push(&b.pq, item)
		return
	}
	if Closer(item, b.pq.Top()) {
		heap.Pop(&b.pq)
		heap.Push(&b.pq, item)
	}
}

// Drain returns the collected items closest first and empties the collector.
func (b *Bounded) Drain() []*PriorityQueueItem {
	out := make([]*PriorityQueueItem, b.pq.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = heap.Pop(&b.pq).(*PriorityQueueItem)
	}
	return out
}
