package queue

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Some items and their priorities.
var items = []float64{0.4, 9, 0.001, 0.0534, 0.234, 2.03, 2.042, 2.532, 1.0009, 0.329, 0.193, 0.999, 0.020391, 2.0991, 1.203, 10.03, 1.039, 1.0008, 5.029, 0.789}

func TestMaxValidation(t *testing.T) {
	h := &PriorityQueue{Order: true}
	heap.Init(h)

	for k, v := range items {
		heap.Push(h, &PriorityQueueItem{Node: k, Distance: v})
	}

	maxItem := h.Top()
	assert.Equal(t, 10.03, maxItem.Distance)
	assert.Equal(t, 15, maxItem.Node)
	assert.Equal(t, 20, h.Len())

	for h.Len() > 10 {
		heap.Pop(h)
	}

	maxItem = h.Top()
	assert.Equal(t, 1.0008, maxItem.Distance)
	assert.Equal(t, 17, maxItem.Node)
}

func TestMinValidation(t *testing.T) {
	h := &PriorityQueue{}
	heap.Init(h)

	for k, v := range items {
		heap.Push(h, &PriorityQueueItem{Node: k, Distance: v})
	}

	minItem := h.Top()
	assert.Equal(t, 0.001, minItem.Distance)
	assert.Equal(t, 2, minItem.Node)
	assert.Nil(t, (&PriorityQueue{}).Pop())
}

func TestTieBreakByNode(t *testing.T) {
	h := &PriorityQueue{}
	heap.Init(h)
	heap.Push(h, &PriorityQueueItem{Node: 7, Distance: 1})
	heap.Push(h, &PriorityQueueItem{Node: 3, Distance: 1})
	heap.Push(h, &PriorityQueueItem{Node: 5, Distance: 1})

	assert.Equal(t, 3, h.Top().Node)
}

func TestBounded(t *testing.T) {
	b := NewBounded(3)
	for k, v := range items {
		b.Offer(k, v)
	}
	assert.True(t, b.Full())
	assert.Equal(t, 0.0534, b.Worst())

	out := b.Drain()
	assert.Len(t, out, 3)
	assert.Equal(t, []int{2, 12, 3}, []int{out[0].Node, out[1].Node, out[2].Node})
	assert.False(t, b.Full())
}

func TestBounded_ZeroK(t *testing.T) {
	b := NewBounded(0)
	b.Offer(1, 1)
	assert.Empty(t, b.Drain())
}
