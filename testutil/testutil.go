package testutil

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// rows allocates num rows of 1+attrs values on a single backing array.
// Position 0 is left for the id.
func rows(num, attrs int) [][]float64 {
	data := make([]float64, num*(attrs+1))
	out := make([][]float64, num)
	for i := range num {
		out[i] = data[i*(attrs+1) : (i+1)*(attrs+1)]
		out[i][0] = float64(i)
	}
	return out
}

// UniformRows generates rows with attrs values in [0, 1).
func (r *RNG) UniformRows(num, attrs int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := rows(num, attrs)
	for _, row := range out {
		for j := 1; j < len(row); j++ {
			row[j] = r.rand.Float64()
		}
	}
	return out
}

// ClusteredRows generates rows scattered with Gaussian noise around
// clusters random centres in [0, 100). Row i belongs to cluster i%clusters.
func (r *RNG) ClusteredRows(num, attrs, clusters int, spread float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	centres := make([][]float64, clusters)
	for c := range centres {
		centres[c] = make([]float64, attrs)
		for j := range centres[c] {
			centres[c][j] = r.rand.Float64() * 100
		}
	}

	out := rows(num, attrs)
	for i, row := range out {
		centre := centres[i%clusters]
		for j := 1; j < len(row); j++ {
			row[j] = centre[j-1] + r.rand.NormFloat64()*spread
		}
	}
	return out
}

// TreeEdges generates the edge list of a random tree over nodes 0..n-1:
// node i > 0 attaches to a uniformly chosen earlier node.
func (r *RNG) TreeEdges(n int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := rows(n-1, 2)
	for i, row := range out {
		row[1] = float64(r.rand.IntN(i + 1))
		row[2] = float64(i + 1)
	}
	return out
}

// GridRows generates the side*side points of a unit-spaced 2-D grid.
func GridRows(side int) [][]float64 {
	out := rows(side*side, 2)
	for i, row := range out {
		row[1] = float64(i % side)
		row[2] = float64(i / side)
	}
	return out
}

// PathEdges generates the edge list 0-1, 1-2, ..., (n-2)-(n-1).
func PathEdges(n int) [][]float64 {
	out := rows(n-1, 2)
	for i, row := range out {
		row[1] = float64(i)
		row[2] = float64(i + 1)
	}
	return out
}

// MustDataset builds a dataset from rows and panics on error.
func MustDataset(name string, rows [][]float64) *dataset.Dataset {
	ds, err := dataset.FromRecords(name, rows)
	if err != nil {
		panic(err)
	}
	return ds
}

// DrainIDs calls next until it reports exhaustion and returns the ids of
// all records in emission order. It fails on a repeated id or an empty
// chunk reported as non-exhausted.
func DrainIDs(next func() (model.Chunk, bool)) ([]int, error) {
	var out []int
	seen := make(map[int]struct{})
	for {
		chunk, ok := next()
		if !ok {
			return out, nil
		}
		if len(chunk) == 0 {
			return out, fmt.Errorf("empty chunk after %d records", len(out))
		}
		for _, id := range chunk.IDs() {
			if _, dup := seen[id]; dup {
				return out, fmt.Errorf("record %d emitted twice", id)
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
}
