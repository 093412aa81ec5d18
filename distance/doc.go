// Package distance provides the point-to-point metrics used by the spatial
// indexes, the nearest-neighbour linearization and the clustering subdividers.
//
// # Supported Metrics
//
//   - MetricL2: Euclidean distance (default)
//   - MetricSquaredL2: squared Euclidean distance, monotone with MetricL2
//   - MetricManhattan: L1 distance
//   - MetricChebyshev: L∞ distance
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricL2)
//	d := fn(a, b)
package distance
