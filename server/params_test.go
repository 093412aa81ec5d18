package server

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/selection"
	"github.com/hupe1980/trickle/spatial"
	"github.com/hupe1980/trickle/subdivide"
)

func peaks(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load("peaks", &dataset.Table{
		Columns: []string{"id", "lat", "lon", "height", "first_ascent"},
		Rows:    [][]float64{{0, 1, 2, 3, 4}, {0, 5, 6, 7, 8}},
	})
	require.NoError(t, err)
	return ds
}

func parse(t *testing.T, query string, defaults map[string]string) (trickle.Config, error) {
	t.Helper()
	q, err := url.ParseQuery(query)
	require.NoError(t, err)
	return params{q: q, defaults: defaults, ds: peaks(t)}.pipeline()
}

func TestParams_Builtins(t *testing.T) {
	cfg, err := parse(t, "", nil)
	require.NoError(t, err)
	assert.Equal(t, linearize.KindZOrder, cfg.Linearization.Kind)
	assert.Equal(t, subdivide.KindCardinality, cfg.Subdivision.Kind)
	assert.Equal(t, 100, cfg.Subdivision.Buckets)
	assert.Equal(t, selection.KindRandom, cfg.Selection.Kind)
}

func TestParams_ColumnsAndAliases(t *testing.T) {
	cfg, err := parse(t,
		"linearization=temporal&dimension=first_ascent&subdivision=dbscan&eps=0.5&min_samples=4&subspace=lat:lon&selection=max&seed=7&index=hnsw",
		nil)
	require.NoError(t, err)

	assert.Equal(t, linearize.KindAttributeSort, cfg.Linearization.Kind)
	assert.Equal(t, 4, cfg.Linearization.Attribute, "attribute sort falls back to the selection dimension")
	assert.Equal(t, spatial.KindHNSW, cfg.Linearization.Index)

	assert.Equal(t, subdivide.KindDensity, cfg.Subdivision.Kind)
	assert.InDelta(t, 0.5, cfg.Subdivision.Eps, 0)
	assert.Equal(t, 4, cfg.Subdivision.MinSamples)
	assert.Equal(t, []int{1, 2}, cfg.Subdivision.Dimensions)
	assert.Equal(t, spatial.KindHNSW, cfg.Subdivision.Index)
	assert.Equal(t, uint64(7), cfg.Subdivision.Seed)

	assert.Equal(t, selection.KindMaximum, cfg.Selection.Kind)
	assert.Equal(t, 4, cfg.Selection.Attribute)
	assert.Equal(t, uint64(7), cfg.Selection.Seed)
}

func TestParams_Representative(t *testing.T) {
	cfg, err := parse(t, "subdivision=representative&k=5&subspace=1,2,3", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Subdivision.Buckets)
	assert.Equal(t, []int{1, 2, 3}, cfg.Subdivision.Dimensions)
}

func TestParams_Defaults(t *testing.T) {
	defaults := map[string]string{"selection": "median", "dimension": "height", "buckets": "12"}

	cfg, err := parse(t, "", defaults)
	require.NoError(t, err)
	assert.Equal(t, selection.KindMedian, cfg.Selection.Kind)
	assert.Equal(t, 3, cfg.Selection.Attribute)
	assert.Equal(t, 12, cfg.Subdivision.Buckets)

	cfg, err = parse(t, "buckets=3&dimension=lat", defaults)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Subdivision.Buckets, "the request wins")
	assert.Equal(t, 1, cfg.Selection.Attribute)
}

func TestParams_Errors(t *testing.T) {
	for _, query := range []string{
		"linearization=hilbert",
		"subdivision=quadtree",
		"selection=mode",
		"buckets=ten",
		"rate=fast",
		"seed=-1",
		"dimension=altitude",
		"subspace=lat:altitude",
		"index=ball-tree",
	} {
		t.Run(query, func(t *testing.T) {
			_, err := parse(t, query, nil)
			assert.ErrorIs(t, err, trickle.ErrConfig)
		})
	}
}
