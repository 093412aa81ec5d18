package bitmap

import (
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// IDSet is a set of dense record ids backed by a 32-bit Roaring bitmap.
type IDSet struct {
	rb *roaring.Bitmap
}

// setPool reuses IDSets for short-lived per-call sets.
var setPool = sync.Pool{
	New: func() any {
		return &IDSet{rb: roaring.New()}
	},
}

// New creates an empty set.
func New() *IDSet {
	return &IDSet{rb: roaring.New()}
}

// Of creates a set holding ids.
func Of(ids ...int) *IDSet {
	s := New()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Get takes a cleared set from the pool. Call Put when done.
func Get() *IDSet {
	s := setPool.Get().(*IDSet)
	s.rb.Clear()
	return s
}

// Put returns a set to the pool.
func Put(s *IDSet) {
	if s == nil {
		return
	}
	s.rb.Clear()
	setPool.Put(s)
}

// Add inserts id.
func (s *IDSet) Add(id int) { s.rb.Add(uint32(id)) }

// Remove deletes id.
func (s *IDSet) Remove(id int) { s.rb.Remove(uint32(id)) }

// Contains reports whether id is present.
func (s *IDSet) Contains(id int) bool { return s.rb.Contains(uint32(id)) }

// Len returns the cardinality.
func (s *IDSet) Len() int { return int(s.rb.GetCardinality()) }

// IsEmpty reports whether the set has no ids.
func (s *IDSet) IsEmpty() bool { return s.rb.IsEmpty() }

// Clear removes every id.
func (s *IDSet) Clear() { s.rb.Clear() }

// Clone returns a deep copy.
func (s *IDSet) Clone() *IDSet { return &IDSet{rb: s.rb.Clone()} }

// Union adds every id of other.
func (s *IDSet) Union(other *IDSet) { s.rb.Or(other.rb) }

// Difference removes every id of other.
func (s *IDSet) Difference(other *IDSet) { s.rb.AndNot(other.rb) }

// IDs returns the ids in ascending order.
func (s *IDSet) IDs() []int {
	out := make([]int, 0, s.Len())
	it := s.rb.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// All iterates the ids in ascending order.
func (s *IDSet) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// MarshalBinary encodes the set in the portable Roaring format.
func (s *IDSet) MarshalBinary() ([]byte, error) {
	s.rb.RunOptimize()
	return s.rb.ToBytes()
}

// UnmarshalBinary decodes a set written by MarshalBinary.
func (s *IDSet) UnmarshalBinary(data []byte) error {
	if s.rb == nil {
		s.rb = roaring.New()
	}
	return s.rb.UnmarshalBinary(data)
}
