// Package subdivide partitions a linearization into buckets of local
// neighbourhoods.
//
// Contiguous strategies (cardinality, standard, budget, random edges,
// cohesion, coverage, interval) cut the linearization into runs. Grouping
// strategies (stratified, density, representative) gather records by a
// label while keeping linearization order inside each bucket.
//
// The clustering strategies fit on a bounded, seeded subsample and assign
// every other record the label of its nearest sampled neighbour, so bucket
// membership near cluster boundaries is approximate.
package subdivide
