package model

// Record is a fixed-length tuple of numeric values.
// Position 0 holds the dense identifier assigned at load time.
type Record []float64

// ID returns the dense identifier stored at position 0.
func (r Record) ID() int {
	return int(r[0])
}

// Arity returns the number of attributes including the id.
func (r Record) Arity() int { return len(r) }

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	copy(c, r)
	return c
}

// Chunk is the ordered set of records returned by one sample call.
type Chunk []Record

// IDs returns the dense ids of the chunk in order.
func (c Chunk) IDs() []int {
	ids := make([]int, len(c))
	for i, r := range c {
		ids[i] = r.ID()
	}
	return ids
}

// Column extracts attribute a of every record.
func Column(records []Record, a int) []float64 {
	col := make([]float64, len(records))
	for i, r := range records {
		col[i] = r[a]
	}
	return col
}

// Subspace projects a record onto the given attribute indices.
func Subspace(r Record, dims []int) []float64 {
	p := make([]float64, len(dims))
	for i, d := range dims {
		p[i] = r[d]
	}
	return p
}
