package partition

import (
	"fmt"
	"slices"

	"github.com/hupe1980/trickle/model"
)

// Partition maps bucket keys to ordered record sequences.
//
// A Partition is not safe for concurrent use; the attached selector owns it.
type Partition struct {
	keys    []int // live keys, ascending
	buckets map[int][]model.Record
	total   int
}

// New builds a partition from buckets in order, assigning keys 0..n-1 to the
// non-empty ones. The record slices are copied; records themselves are shared.
func New(buckets ...[]model.Record) *Partition {
	p := &Partition{buckets: make(map[int][]model.Record, len(buckets))}
	key := 0
	for _, b := range buckets {
		if len(b) == 0 {
			continue
		}
		p.keys = append(p.keys, key)
		p.buckets[key] = slices.Clone(b)
		p.total += len(b)
		key++
	}
	return p
}

// Keys returns the live bucket keys in ascending order.
func (p *Partition) Keys() []int {
	return slices.Clone(p.keys)
}

// NumBuckets returns the number of live buckets.
func (p *Partition) NumBuckets() int { return len(p.keys) }

// Total returns the number of records across all buckets.
func (p *Partition) Total() int { return p.total }

// IsEmpty reports whether no records remain.
func (p *Partition) IsEmpty() bool { return p.total == 0 }

// Has reports whether key is a live bucket.
func (p *Partition) Has(key int) bool {
	_, ok := p.buckets[key]
	return ok
}

// Bucket returns the records of key in bucket order. The slice is a view and
// must not be modified.
func (p *Partition) Bucket(key int) []model.Record {
	return p.buckets[key]
}

// Size returns the number of records in key.
func (p *Partition) Size(key int) int {
	return len(p.buckets[key])
}

// Take removes the records at positions from bucket key and returns them in
// the order the positions were given. Remaining records keep their relative
// order. A bucket left empty is deleted.
func (p *Partition) Take(key int, positions []int) []model.Record {
	bucket, ok := p.buckets[key]
	if !ok {
		panic(fmt.Sprintf("partition: take from missing bucket %d", key))
	}
	if len(positions) == 0 {
		return nil
	}

	removed := make([]bool, len(bucket))
	out := make([]model.Record, len(positions))
	for i, pos := range positions {
		if pos < 0 || pos >= len(bucket) || removed[pos] {
			panic(fmt.Sprintf("partition: invalid position %d in bucket %d of size %d", pos, key, len(bucket)))
		}
		removed[pos] = true
		out[i] = bucket[pos]
	}

	kept := bucket[:0]
	for i, r := range bucket {
		if !removed[i] {
			kept = append(kept, r)
		}
	}
	clear(bucket[len(kept):])
	p.total -= len(positions)

	if len(kept) == 0 {
		delete(p.buckets, key)
		idx, _ := slices.BinarySearch(p.keys, key)
		p.keys = slices.Delete(p.keys, idx, idx+1)
		return out
	}
	p.buckets[key] = kept
	return out
}

// Records returns every remaining record in key order, then bucket order.
func (p *Partition) Records() []model.Record {
	out := make([]model.Record, 0, p.total)
	for _, k := range p.keys {
		out = append(out, p.buckets[k]...)
	}
	return out
}

// Sizes returns the record count of every live bucket in key order.
func (p *Partition) Sizes() []int {
	out := make([]int, len(p.keys))
	for i, k := range p.keys {
		out[i] = len(p.buckets[k])
	}
	return out
}

// Clone returns an independent partition with the same keys and contents.
func (p *Partition) Clone() *Partition {
	c := &Partition{
		keys:    slices.Clone(p.keys),
		buckets: make(map[int][]model.Record, len(p.buckets)),
		total:   p.total,
	}
	for k, b := range p.buckets {
		c.buckets[k] = slices.Clone(b)
	}
	return c
}

// Drain removes and returns every remaining record in key order.
func (p *Partition) Drain() []model.Record {
	out := p.Records()
	clear(p.buckets)
	p.keys = p.keys[:0]
	p.total = 0
	return out
}
