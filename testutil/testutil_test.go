package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trickle/model"
)

func TestUniformRows(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformRows(8, 3)

	assert.Len(t, v, 8)
	assert.Len(t, v[0], 4)
	assert.Equal(t, 5.0, v[5][0])
	assert.Less(t, v[0][1], 1.0)
	assert.GreaterOrEqual(t, v[1][2], 0.0)
}

func TestClusteredRows(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredRows(100, 2, 5, 0.1)

	assert.Len(t, v, 100)
	assert.Len(t, v[0], 3)
	assert.InDelta(t, v[0][1], v[5][1], 2)
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UniformRows(1, 10)
	rng.Reset()
	v2 := rng.UniformRows(1, 10)
	assert.Equal(t, v1, v2)
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestEdges(t *testing.T) {
	assert.Equal(t, [][]float64{{0, 0, 1}, {1, 1, 2}}, PathEdges(3))

	tree := NewRNG(1).TreeEdges(10)
	assert.Len(t, tree, 9)
	for i, e := range tree {
		assert.Less(t, e[1], e[2])
		assert.Equal(t, float64(i+1), e[2])
	}
}

func TestGridRows(t *testing.T) {
	g := GridRows(3)
	assert.Len(t, g, 9)
	assert.Equal(t, []float64{4, 1, 1}, g[4])
}

func TestDrainIDs(t *testing.T) {
	chunks := []model.Chunk{{{0}, {2}}, {{1}}}
	ids, err := DrainIDs(func() (model.Chunk, bool) {
		if len(chunks) == 0 {
			return nil, false
		}
		c := chunks[0]
		chunks = chunks[1:]
		return c, true
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, ids)

	_, err = DrainIDs(func() (model.Chunk, bool) { return model.Chunk{{3}}, true })
	assert.ErrorContains(t, err, "twice")
}

func TestMustDataset(t *testing.T) {
	ds := MustDataset("grid", GridRows(2))
	assert.Equal(t, 4, ds.Len())
	assert.Panics(t, func() { MustDataset("empty", nil) })
}
