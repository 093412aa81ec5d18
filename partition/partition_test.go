package partition

import (
	"testing"

	"github.com/hupe1980/trickle/model"
	"github.com/stretchr/testify/assert"
)

func recs(ids ...int) []model.Record {
	out := make([]model.Record, len(ids))
	for i, id := range ids {
		out[i] = model.Record{float64(id), float64(id * 10)}
	}
	return out
}

func TestNew_DropsEmptyBuckets(t *testing.T) {
	p := New(recs(0, 1), nil, recs(2), []model.Record{}, recs(3, 4, 5))

	assert.Equal(t, []int{0, 1, 2}, p.Keys())
	assert.Equal(t, 3, p.NumBuckets())
	assert.Equal(t, 6, p.Total())
	assert.Equal(t, []int{2, 1, 3}, p.Sizes())
	assert.False(t, p.IsEmpty())
}

func TestTake(t *testing.T) {
	p := New(recs(0, 1, 2, 3), recs(4))

	got := p.Take(0, []int{2, 0})
	assert.Equal(t, []int{2, 0}, model.Chunk(got).IDs())
	assert.Equal(t, []int{1, 3}, model.Chunk(p.Bucket(0)).IDs())
	assert.Equal(t, 3, p.Total())

	p.Take(1, []int{0})
	assert.False(t, p.Has(1))
	assert.Equal(t, []int{0}, p.Keys())

	assert.Nil(t, p.Take(0, nil))
	assert.Equal(t, []int{1, 3}, model.Chunk(p.Records()).IDs())
}

func TestTake_KeysNeverReappear(t *testing.T) {
	p := New(recs(0), recs(1), recs(2))
	p.Take(1, []int{0})
	assert.Equal(t, []int{0, 2}, p.Keys())

	p.Take(0, []int{0})
	p.Take(2, []int{0})
	assert.True(t, p.IsEmpty())
	assert.Empty(t, p.Keys())
	assert.Empty(t, p.Records())
}

func TestTake_InvalidPositionPanics(t *testing.T) {
	p := New(recs(0, 1))
	assert.Panics(t, func() { p.Take(0, []int{2}) })
	assert.Panics(t, func() { p.Take(0, []int{1, 1}) })
	assert.Panics(t, func() { p.Take(7, []int{0}) })
}

func TestClone_IsIndependent(t *testing.T) {
	p := New(recs(0, 1), recs(2))
	c := p.Clone()
	c.Take(0, []int{0, 1})

	assert.Equal(t, 3, p.Total())
	assert.Equal(t, []int{0, 1}, p.Keys())
	assert.Equal(t, []int{1}, c.Keys())
}

func TestDrain(t *testing.T) {
	p := New(recs(0, 1), recs(2))
	p.Take(0, []int{0})

	assert.Equal(t, []int{1, 2}, model.Chunk(p.Drain()).IDs())
	assert.True(t, p.IsEmpty())
	assert.Empty(t, p.Keys())
	assert.Empty(t, p.Drain())
}
