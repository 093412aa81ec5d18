package trickle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trickle/blobstore"
	"github.com/hupe1980/trickle/lincache"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/selection"
	"github.com/hupe1980/trickle/spatial"
	"github.com/hupe1980/trickle/subdivide"
	"github.com/hupe1980/trickle/testutil"
)

func pairsConfig() Config {
	return Config{
		Linearization: linearize.Config{Kind: linearize.KindIdentity},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 4},
		Selection:     selection.Config{Kind: selection.KindMaximum, Attribute: 1},
	}
}

func pairsDataset() [][]float64 {
	return [][]float64{{0, 5}, {0, 3}, {0, 8}, {0, 1}, {0, 9}, {0, 2}, {0, 7}, {0, 4}}
}

func newSampler(t *testing.T, rows [][]float64, cfg Config, opts ...Option) *Sampler {
	t.Helper()
	s, err := New(context.Background(), testutil.MustDataset("test", rows), cfg, opts...)
	require.NoError(t, err)
	return s
}

func drain(t *testing.T, s *Sampler, size int) []int {
	t.Helper()
	ids, err := testutil.DrainIDs(func() (model.Chunk, bool) { return s.Sample(context.Background(), size) })
	require.NoError(t, err)
	return ids
}

func TestSampler_EndToEnd(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	s := newSampler(t, pairsDataset(), pairsConfig(), WithMetricsCollector(metrics))
	ctx := context.Background()

	assert.Equal(t, 8, s.DatasetSize())

	chunk, ok := s.Sample(ctx, 0)
	require.True(t, ok)
	assert.ElementsMatch(t, []float64{5, 8, 9, 7}, model.Column(chunk, 1))
	assert.Equal(t, 4, s.Remaining())
	assert.Equal(t, 4, s.Emitted())

	chunk, ok = s.Sample(ctx, 0)
	require.True(t, ok)
	assert.ElementsMatch(t, []float64{3, 1, 2, 4}, model.Column(chunk, 1))

	chunk, ok = s.Sample(ctx, 0)
	assert.False(t, ok)
	assert.Nil(t, chunk)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(3), stats.SampleCount)
	assert.Equal(t, int64(8), stats.SampleRecords)
	assert.Equal(t, int64(1), stats.ExhaustedCount)
}

func TestNew_FailsFast(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	cfg := pairsConfig()
	cfg.Selection.Attribute = 5

	s, err := New(context.Background(), testutil.MustDataset("test", pairsDataset()), cfg, WithMetricsCollector(metrics))
	assert.ErrorIs(t, err, ErrConfig)
	assert.Nil(t, s)
	assert.Equal(t, int64(1), metrics.GetStats().BuildErrors)

	cfg = pairsConfig()
	cfg.Linearization = linearize.Config{Kind: linearize.KindZOrder2D}
	_, err = New(context.Background(), testutil.MustDataset("test", pairsDataset()), cfg)
	assert.ErrorIs(t, err, ErrConfig)

	cfg = pairsConfig()
	cfg.Linearization = linearize.Config{Kind: linearize.KindGraphBasic}
	_, err = New(context.Background(), testutil.MustDataset("test", pairsDataset()), cfg)
	assert.ErrorIs(t, err, ErrConfig, "edge lists need a source and target column")
}

func TestSampler_NoDuplicationAcrossStrategies(t *testing.T) {
	rows := testutil.NewRNG(7).ClusteredRows(400, 3, 4, 2)
	configs := []Config{
		{
			Linearization: linearize.Config{Kind: linearize.KindZOrder},
			Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 20},
			Selection:     selection.Config{Kind: selection.KindRandom, Seed: 1},
		},
		{
			Linearization: linearize.Config{Kind: linearize.KindNearestNeighbor},
			Subdivision:   subdivide.Config{Kind: subdivide.KindCohesion, Buckets: 12},
			Selection:     selection.Config{Kind: selection.KindMedian, Attribute: 2},
		},
		{
			Linearization: linearize.Config{Kind: linearize.KindAttributeSort, Attribute: 1},
			Subdivision:   subdivide.Config{Kind: subdivide.KindInterval, Attribute: 1, Bins: 8},
			Selection:     selection.Config{Kind: selection.KindMinimum, Attribute: 3},
		},
		{
			Linearization: linearize.Config{Kind: linearize.KindRandom, Seed: 2},
			Subdivision:   subdivide.Config{Kind: subdivide.KindRepresentative, Buckets: 4, Dimensions: []int{1, 2, 3}},
			Selection:     selection.Config{Kind: selection.KindFirst},
		},
	}
	for _, cfg := range configs {
		t.Run(cfg.Linearization.Kind.String(), func(t *testing.T) {
			s := newSampler(t, rows, cfg)
			ids := drain(t, s, 37)
			assert.Len(t, ids, 400)
			assert.Zero(t, s.Remaining())
		})
	}
}

func TestSampler_Determinism(t *testing.T) {
	rows := testutil.NewRNG(3).UniformRows(200, 2)
	cfg := Config{
		Linearization: linearize.Config{Kind: linearize.KindZOrder2D},
		Subdivision:   subdivide.Config{Kind: subdivide.KindRandomEdges, Buckets: 9, Seed: 4},
		Selection:     selection.Config{Kind: selection.KindRandom, Seed: 5},
	}
	a := drain(t, newSampler(t, rows, cfg), 13)
	b := drain(t, newSampler(t, rows, cfg), 13)
	assert.Equal(t, a, b)
}

func TestSampler_Steering(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	s := newSampler(t, pairsDataset(), pairsConfig(), WithMetricsCollector(metrics))
	ctx := context.Background()

	require.NoError(t, s.Steer(1, 2, 4))
	assert.Equal(t, map[int]selection.Range{1: {Min: 2, Max: 4}}, s.Steering())

	chunk, _ := s.Sample(ctx, 10)
	assert.ElementsMatch(t, []float64{3, 2, 4}, model.Column(chunk, 1))
	assert.Equal(t, int64(1), metrics.GetStats().SteeredCount)

	// No match left: the default strategy answers.
	chunk, _ = s.Sample(ctx, 0)
	assert.ElementsMatch(t, []float64{5, 8, 9, 7}, model.Column(chunk, 1))

	s.ClearSteering()
	assert.Empty(t, s.Steering())
	assert.ErrorIs(t, s.Steer(9, 0, 1), ErrConfig)
}

func TestSampler_SwapSubdivision(t *testing.T) {
	rows := testutil.NewRNG(1).UniformRows(100, 2)
	cfg := Config{
		Linearization: linearize.Config{Kind: linearize.KindZOrder},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 10},
		Selection:     selection.Config{Kind: selection.KindRandom},
	}
	s := newSampler(t, rows, cfg)
	ctx := context.Background()
	require.NoError(t, s.Steer(1, 0, 0.5))

	first, _ := s.Sample(ctx, 30)
	require.NoError(t, s.SwapSubdivision(ctx, subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 7}))
	assert.Equal(t, 7, s.Partition().NumBuckets())
	assert.Equal(t, 70, s.Remaining())
	assert.NotEmpty(t, s.Steering(), "steering survives a subdivision swap")

	rest := drain(t, s, 0)
	assert.Len(t, rest, 70)
	assert.NotContains(t, rest, first.IDs()[0])
	assert.Equal(t, 100, s.DatasetSize())
}

func TestSampler_SwapSelection(t *testing.T) {
	s := newSampler(t, pairsDataset(), pairsConfig())
	ctx := context.Background()

	require.NoError(t, s.SwapSelection(ctx, selection.Config{Kind: selection.KindMinimum, Attribute: 1}))
	chunk, _ := s.Sample(ctx, 0)
	assert.ElementsMatch(t, []float64{3, 1, 2, 4}, model.Column(chunk, 1))

	// A rejected swap keeps the previous selector.
	err := s.SwapSelection(ctx, selection.Config{Kind: selection.KindMaximum, Attribute: 3})
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, selection.KindMinimum, s.Config().Selection.Kind)

	require.NoError(t, s.SetSelectionAttribute(ctx, 0))
	assert.Equal(t, 0, s.Config().Selection.Attribute)
	assert.Len(t, drain(t, s, 0), 4)
}

func TestSampler_SwapSelection_KeepsLinearizationOrder(t *testing.T) {
	cfg := Config{
		Linearization: linearize.Config{Kind: linearize.KindIdentity},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 1},
		Selection:     selection.Config{Kind: selection.KindMinimum, Attribute: 1},
	}
	s := newSampler(t, [][]float64{{0, 5}, {0, 3}, {0, 8}, {0, 1}}, cfg)
	ctx := context.Background()

	require.NoError(t, s.SwapSelection(ctx, selection.Config{Kind: selection.KindFirst}))
	chunk, ok := s.Sample(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, []float64{5}, model.Column(chunk, 1))
}

func TestSampler_SwapLinearization(t *testing.T) {
	rows := testutil.GridRows(10)
	cfg := Config{
		Linearization: linearize.Config{Kind: linearize.KindIdentity},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 5},
		Selection:     selection.Config{Kind: selection.KindFirst},
	}
	s := newSampler(t, rows, cfg)
	ctx := context.Background()

	first, _ := s.Sample(ctx, 25)
	require.NoError(t, s.SwapLinearization(ctx, linearize.Config{Kind: linearize.KindZOrder2D}))
	assert.Equal(t, linearize.KindZOrder2D, s.Config().Linearization.Kind)
	assert.Equal(t, 75, s.Remaining())

	rest := drain(t, s, 10)
	assert.Len(t, rest, 75)
	assert.ElementsMatch(t, append(first.IDs(), rest...), func() []int {
		all := make([]int, 100)
		for i := range all {
			all[i] = i
		}
		return all
	}())

	err := s.SwapLinearization(ctx, linearize.Config{Kind: linearize.KindGraphBasic})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSampler_GraphSwap(t *testing.T) {
	rows := testutil.NewRNG(5).TreeEdges(40)
	cfg := Config{
		Linearization: linearize.Config{Kind: linearize.KindGraphBasic},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 8},
		Selection:     selection.Config{Kind: selection.KindFirst},
	}
	s := newSampler(t, rows, cfg)
	ctx := context.Background()
	assert.Equal(t, 40, s.DatasetSize(), "one record per node")

	first, _ := s.Sample(ctx, 0)
	require.Len(t, first, 8)

	require.NoError(t, s.SwapLinearization(ctx, linearize.Config{Kind: linearize.KindGraphSpanningTree}))
	assert.Equal(t, 32, s.Remaining())

	rest := drain(t, s, 0)
	for _, id := range first.IDs() {
		assert.NotContains(t, rest, id)
	}
	assert.Len(t, rest, 32)

	err := s.SwapLinearization(ctx, linearize.Config{Kind: linearize.KindZOrder})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSampler_SwapAfterExhaustion(t *testing.T) {
	s := newSampler(t, pairsDataset(), pairsConfig())
	ctx := context.Background()
	drain(t, s, 0)

	require.NoError(t, s.SwapLinearization(ctx, linearize.Config{Kind: linearize.KindRandom}))
	require.NoError(t, s.SwapSubdivision(ctx, subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 2}))
	_, ok := s.Sample(ctx, 0)
	assert.False(t, ok)
}

func TestSampler_Drain(t *testing.T) {
	s := newSampler(t, pairsDataset(), pairsConfig())
	ctx := context.Background()
	first, _ := s.Sample(ctx, 3)

	rest := s.Drain(ctx)
	assert.Len(t, rest, 5)
	assert.Equal(t, 8, s.Emitted())
	for _, id := range first.IDs() {
		assert.NotContains(t, rest.IDs(), id)
	}
	_, ok := s.Sample(ctx, 1)
	assert.False(t, ok)
}

func TestSampler_LinearizationCache(t *testing.T) {
	store := blobstore.NewMemoryStore()
	cache := lincache.New(store)
	rows := testutil.NewRNG(2).UniformRows(50, 2)
	cfg := Config{
		Linearization: linearize.Config{Kind: linearize.KindZOrder},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 5},
		Selection:     selection.Config{Kind: selection.KindFirst},
	}

	a := drain(t, newSampler(t, rows, cfg, WithLinearizationCache(cache)), 0)
	keys, err := cache.Keys(context.Background(), "test")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	b := drain(t, newSampler(t, rows, cfg, WithLinearizationCache(cache)), 0)
	assert.Equal(t, a, b)
}

func TestSampler_IndexOverride(t *testing.T) {
	cfg := Config{
		Linearization: linearize.Config{Kind: linearize.KindNearestNeighbor},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 4},
		Selection:     selection.Config{Kind: selection.KindFirst},
	}
	s := newSampler(t, testutil.GridRows(5), cfg, WithIndexKind(spatial.KindHNSW))
	assert.Equal(t, spatial.KindHNSW, s.Config().Linearization.Index)
	assert.Len(t, drain(t, s, 4), 25)
}
