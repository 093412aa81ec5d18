package subdivide

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/partition"
)

func line(values ...float64) []model.Record {
	out := make([]model.Record, len(values))
	for i, v := range values {
		out[i] = model.Record{float64(i), v}
	}
	return out
}

func blobs(n int, seed uint64) []model.Record {
	r := rand.New(rand.NewPCG(seed, 0))
	out := make([]model.Record, 2*n)
	for i := range out {
		c := 0.0
		if i%2 == 1 {
			c = 100
		}
		out[i] = model.Record{float64(i), c + r.Float64(), c + r.Float64()}
	}
	return out
}

func bucketIDs(p *partition.Partition) [][]int {
	out := make([][]int, 0, p.NumBuckets())
	for _, k := range p.Keys() {
		out = append(out, model.Chunk(p.Bucket(k)).IDs())
	}
	return out
}

func run(t *testing.T, lin []model.Record, cfg Config) *partition.Partition {
	t.Helper()
	p, err := Subdivide(context.Background(), lin, cfg)
	require.NoError(t, err)
	return p
}

func TestParseKind(t *testing.T) {
	for k := range kindNames {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("Bucket-Size")
	require.NoError(t, err)
	assert.Equal(t, KindBudget, got)

	_, err = ParseKind("quadtree")
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"cardinality without buckets", Config{Kind: KindCardinality}},
		{"rate zero", Config{Kind: KindStandard}},
		{"rate above one", Config{Kind: KindStandard, Rate: 1.5}},
		{"budget zero", Config{Kind: KindBudget}},
		{"density without eps", Config{Kind: KindDensity, MinSamples: 2, Buckets: 2, Dimensions: []int{1}}},
		{"density without subspace", Config{Kind: KindDensity, Eps: 1, MinSamples: 2, Buckets: 2}},
		{"representative without subspace", Config{Kind: KindRepresentative, Buckets: 2}},
		{"coverage inverted quantiles", Config{Kind: KindCoverage, LowQuantile: 0.8, HighQuantile: 0.2}},
		{"interval negative attribute", Config{Kind: KindInterval, Bins: 2, Attribute: -1}},
		{"unknown", Config{Kind: Kind(77)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, model.ErrConfig)
		})
	}

	_, err := Subdivide(context.Background(), line(1, 2), Config{Kind: KindBudget, Budget: 1, Attribute: 2})
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestNew_DefaultSubspace(t *testing.T) {
	for _, cfg := range []Config{
		{Kind: KindCohesion, Buckets: 2},
		{Kind: KindStratified, Bins: 2},
	} {
		t.Run(cfg.Kind.String(), func(t *testing.T) {
			s, err := New(cfg)
			require.NoError(t, err)

			p, err := s.Subdivide(context.Background(), line(0, 1, 9, 10))
			require.NoError(t, err)
			assert.Equal(t, 4, p.Total())

			_, err = s.Subdivide(context.Background(), []model.Record{{0}, {1}})
			assert.ErrorIs(t, err, model.ErrConfig)
		})
	}
}

func TestSubdivide_EmptyAndRagged(t *testing.T) {
	p := run(t, nil, Config{Kind: KindCardinality, Buckets: 3})
	assert.True(t, p.IsEmpty())

	_, err := Subdivide(context.Background(), []model.Record{{0, 1}, {1}}, Config{Kind: KindCardinality, Buckets: 1})
	assert.ErrorIs(t, err, model.ErrData)
}

func TestCardinality(t *testing.T) {
	p := run(t, line(5, 3, 8, 1, 9, 2, 7, 4), Config{Kind: KindCardinality, Buckets: 4})
	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}}, bucketIDs(p))

	p = run(t, line(0, 0, 0, 0, 0, 0, 0, 0, 0, 0), Config{Kind: KindCardinality, Buckets: 3})
	assert.Equal(t, []int{3, 3, 3, 1}, p.Sizes())

	p = run(t, line(0, 0), Config{Kind: KindCardinality, Buckets: 5})
	assert.Equal(t, []int{1, 1}, p.Sizes())
}

func TestStandard(t *testing.T) {
	p := run(t, line(0, 0, 0, 0, 0, 0, 0, 0, 0), Config{Kind: KindStandard, Rate: 0.25})
	assert.Equal(t, []int{4, 4, 1}, p.Sizes())
}

func TestBudget(t *testing.T) {
	p := run(t, line(2, 3, 4, 1, 5), Config{Kind: KindBudget, Attribute: 1, Budget: 6})
	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4}}, bucketIDs(p))

	// A leading record over budget opens no empty bucket.
	p = run(t, line(7, 1), Config{Kind: KindBudget, Attribute: 1, Budget: 6})
	assert.Equal(t, [][]int{{0}, {1}}, bucketIDs(p))
}

func TestRandomEdges(t *testing.T) {
	lin := line(make([]float64, 50)...)
	cfg := Config{Kind: KindRandomEdges, Buckets: 7, Seed: 3}

	a := run(t, lin, cfg)
	b := run(t, lin, cfg)
	assert.Equal(t, bucketIDs(a), bucketIDs(b))
	assert.Equal(t, 7, a.NumBuckets())
	assert.Equal(t, 50, a.Total())

	p := run(t, line(1, 2, 3), Config{Kind: KindRandomEdges, Buckets: 10})
	assert.Equal(t, [][]int{{0}, {1}, {2}}, bucketIDs(p))
}

func TestCohesion(t *testing.T) {
	p := run(t, line(0, 1, 2, 10, 11, 12, 30, 31), Config{Kind: KindCohesion, Buckets: 3})
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}, {6, 7}}, bucketIDs(p))
}

func TestCoverage(t *testing.T) {
	p := run(t, line(1, 5, 10, 5, 5, 1, 5, 10, 5), Config{Kind: KindCoverage, Attribute: 1})
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5, 6, 7}, {8}}, bucketIDs(p))
}

func TestStratified(t *testing.T) {
	p := run(t, line(0, 10, 1, 9, 2, 8), Config{Kind: KindStratified, Bins: 2})
	assert.Equal(t, [][]int{{0, 2, 4}, {1, 3, 5}}, bucketIDs(p))

	// Two attributes disagreeing on the bin fall to the lower one.
	lin := []model.Record{{0, 0, 10}, {1, 10, 10}, {2, 0, 0}}
	p = run(t, lin, Config{Kind: KindStratified, Bins: 2})
	assert.Equal(t, [][]int{{0, 2}, {1}}, bucketIDs(p))
}

func TestInterval(t *testing.T) {
	p := run(t, line(0, 1, 2, 8, 9, 10), Config{Kind: KindInterval, Attribute: 1, Bins: 2})
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}}, bucketIDs(p))

	p = run(t, line(4, 4, 4), Config{Kind: KindInterval, Attribute: 1, Bins: 5})
	assert.Equal(t, []int{3}, p.Sizes())
}

func homogeneous(t *testing.T, p *partition.Partition) {
	t.Helper()
	for _, k := range p.Keys() {
		b := p.Bucket(k)
		for _, r := range b {
			assert.Equal(t, b[0].ID()%2, r.ID()%2, "bucket %d mixes blobs", k)
		}
	}
}

func TestRepresentative(t *testing.T) {
	lin := blobs(20, 1)
	cfg := Config{Kind: KindRepresentative, Buckets: 2, Dimensions: []int{1, 2}, SamplesPerBucket: 5, Seed: 9}
	p := run(t, lin, cfg)
	assert.Equal(t, 2, p.NumBuckets())
	assert.Equal(t, 40, p.Total())
	homogeneous(t, p)

	q := run(t, lin, cfg)
	assert.Equal(t, bucketIDs(p), bucketIDs(q))
}

func TestDensity_SplitsToTarget(t *testing.T) {
	lin := blobs(20, 2)
	p := run(t, lin, Config{Kind: KindDensity, Buckets: 2, Dimensions: []int{1, 2}, Eps: 5, MinSamples: 2})
	assert.Equal(t, 2, p.NumBuckets())
	homogeneous(t, p)

	p = run(t, lin, Config{Kind: KindDensity, Buckets: 4, Dimensions: []int{1, 2}, Eps: 5, MinSamples: 2, Seed: 5})
	assert.Equal(t, 4, p.NumBuckets())
	assert.Equal(t, 40, p.Total())
	homogeneous(t, p)
}

func TestClustered_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Subdivide(ctx, blobs(600, 3), Config{Kind: KindRepresentative, Buckets: 2, Dimensions: []int{1, 2}, SamplesPerBucket: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConservationAndOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	lin := make([]model.Record, 300)
	for i := range lin {
		lin[i] = model.Record{float64(i), r.Float64() * 10, r.NormFloat64()}
	}

	configs := []Config{
		{Kind: KindCardinality, Buckets: 7},
		{Kind: KindStandard, Rate: 0.03},
		{Kind: KindBudget, Attribute: 1, Budget: 25},
		{Kind: KindRandomEdges, Buckets: 13, Seed: 1},
		{Kind: KindCohesion, Buckets: 9},
		{Kind: KindCoverage, Attribute: 2},
		{Kind: KindStratified, Bins: 4},
		{Kind: KindInterval, Attribute: 1, Bins: 6},
		{Kind: KindDensity, Buckets: 8, Dimensions: []int{1, 2}, Eps: 0.8, MinSamples: 3},
		{Kind: KindRepresentative, Buckets: 8, Dimensions: []int{1, 2}, SamplesPerBucket: 10},
	}
	for _, cfg := range configs {
		t.Run(cfg.Kind.String(), func(t *testing.T) {
			p := run(t, lin, cfg)
			assert.Equal(t, len(lin), p.Total())

			seen := make(map[int]bool, len(lin))
			for _, ids := range bucketIDs(p) {
				require.NotEmpty(t, ids)
				assert.IsIncreasing(t, ids, "bucket must keep linearization order")
				for _, id := range ids {
					assert.False(t, seen[id], "record %d in two buckets", id)
					seen[id] = true
				}
			}
			assert.Len(t, seen, len(lin))
		})
	}
}
