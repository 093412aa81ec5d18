// Package spatial provides nearest-neighbour indexes over fixed point sets.
//
// Two implementations satisfy Index:
//
//   - KDTree: exact k-nearest-neighbour and radius queries (default)
//   - HNSW: approximate graph index for high-dimensional subspaces
//
// Both accept an optional filter so callers can ask for the nearest point
// that still satisfies a predicate (for example "not yet visited").
package spatial
