// Package testutil provides testing utilities for trickle.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded row generators, graph edge lists and a helper that
// drains a sampler while checking that no record repeats.
//
// # Random Rows
//
//	rng := testutil.NewRNG(seed)
//	rows := rng.UniformRows(1000, 3)          // id + 3 attributes in [0, 1)
//	rows = rng.ClusteredRows(1000, 2, 5, 0.5) // 5 Gaussian blobs
//	ds := testutil.MustDataset("points", rows)
//
// # Drain Checks
//
//	ids, err := testutil.DrainIDs(func() (model.Chunk, bool) { return s.Sample(ctx, 50) })
package testutil
