package subdivide

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/trickle/cluster"
	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/spatial"
)

// sampleSize bounds the clustering fit to samplesPerBucket records per
// target bucket, capped at maxSample.
func sampleSize(n int, cfg Config) int {
	return min(n, cfg.SamplesPerBucket*cfg.Buckets, cfg.MaxSample)
}

// clustered fits the configured clustering model on a seeded subsample,
// propagates labels to the remaining records through their nearest sampled
// neighbour, and splits labels pseudo-randomly when there are fewer labels
// than target buckets.
func clustered(ctx context.Context, lin []model.Record, cfg Config) ([][]model.Record, error) {
	points := make([][]float64, len(lin))
	for i, r := range lin {
		points[i] = model.Subspace(r, cfg.Dimensions)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(cfg.Kind)))
	m := sampleSize(len(lin), cfg)
	sample := rng.Perm(len(lin))[:m]
	slices.Sort(sample)

	sampled := make([][]float64, m)
	for i, j := range sample {
		sampled[i] = points[j]
	}

	var c cluster.Clusterer
	if cfg.Kind == KindDensity {
		c = cluster.DBSCAN{Eps: cfg.Eps, MinSamples: cfg.MinSamples}
	} else {
		c = cluster.KMeans{K: cfg.Buckets, Seed: cfg.Seed}
	}
	sampleLabels, err := c.FitPredict(ctx, sampled)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, model.WrapDataError(model.StageSubdivision, err)
	}

	labels := make([]int, len(lin))
	if m == len(lin) {
		copy(labels, sampleLabels)
	} else {
		idx, err := spatial.New(cfg.Index, sampled, func(o *spatial.Options) { o.Seed = cfg.Seed })
		if err != nil {
			return nil, model.WrapDataError(model.StageSubdivision, err)
		}
		for i, p := range points {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			nn := idx.Search(p, 1, nil)
			if len(nn) == 0 {
				return nil, model.NewDataError(model.StageSubdivision, "no sampled neighbour for record %d", i)
			}
			labels[i] = sampleLabels[nn[0].ID]
		}
	}

	return splitLabels(lin, labels, cfg.Buckets, rng), nil
}

// splitLabels groups lin by label in ascending label order. With g groups
// and fewer than target, each group is split into target/g sub-buckets, the
// first target%g groups taking one extra, by drawing a sub-bucket per record.
func splitLabels(lin []model.Record, labels []int, target int, rng *rand.Rand) [][]model.Record {
	byLabel := make(map[int][]model.Record)
	for i, r := range lin {
		byLabel[labels[i]] = append(byLabel[labels[i]], r)
	}
	keys := make([]int, 0, len(byLabel))
	for k := range byLabel {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	g := len(keys)
	out := make([][]model.Record, 0, max(g, target))
	for i, k := range keys {
		group := byLabel[k]
		if g >= target {
			out = append(out, group)
			continue
		}
		parts := target / g
		if i < target%g {
			parts++
		}
		parts = min(parts, len(group))
		sub := make([][]model.Record, parts)
		for _, r := range group {
			j := rng.IntN(parts)
			sub[j] = append(sub[j], r)
		}
		out = append(out, sub...)
	}
	return out
}
