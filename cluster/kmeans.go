package cluster

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/trickle/distance"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// KMeans is Lloyd's algorithm with seeded random initialisation.
type KMeans struct {
	K       int
	MaxIter int
	Metric  distance.Metric
	Seed    uint64
}

// FitPredict trains centroids on points and returns each point's nearest centroid.
// When there are fewer points than K, every point becomes its own cluster.
func (km KMeans) FitPredict(ctx context.Context, points [][]float64) ([]int, error) {
	if km.K <= 0 {
		return nil, ErrInvalidK
	}
	if len(points) <= km.K {
		labels := make([]int, len(points))
		for i := range labels {
			labels[i] = i
		}
		return labels, nil
	}

	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}

	rng := rand.New(rand.NewPCG(km.Seed, uint64(km.K)))
	centroids, err := TrainKMeans(ctx, points, km.K, km.Metric, maxIter, rng)
	if err != nil {
		return nil, err
	}

	distFunc, err := distance.Provider(km.Metric)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(points))
	for i, p := range points {
		labels[i] = AssignPartition(p, centroids, distFunc)
	}
	return labels, nil
}

// TrainKMeans trains k centroids from the given points using Lloyd's algorithm.
// It returns nil when there are fewer points than k.
func TrainKMeans(ctx context.Context, points [][]float64, k int, metric distance.Metric, maxIter int, rng *rand.Rand) ([][]float64, error) {
	n := len(points)
	if n < k || n == 0 {
		return nil, nil // Not enough points to cluster
	}
	dim := len(points[0])

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	// Initialize centroids randomly from data points
	perm := rng.Perm(n)
	centroids := make([][]float64, k)
	for i := range centroids {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([][]float64, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		// Assignment step
		for i, p := range points {
			best := AssignPartition(p, centroids, distFunc)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		for j := range sums {
			clear(sums[j])
			counts[j] = 0
		}
		for i, p := range points {
			c := assignments[i]
			for d, v := range p {
				sums[c][d] += v
			}
			counts[c]++
		}

		for j := range centroids {
			if counts[j] > 0 {
				scale := 1.0 / float64(counts[j])
				for d := range centroids[j] {
					centroids[j][d] = sums[j][d] * scale
				}
			} else {
				// Re-seed an empty cluster with a random point.
				copy(centroids[j], points[rng.IntN(n)])
			}
		}
	}

	return centroids, nil
}

// AssignPartition finds the closest centroid for a point.
// Ties resolve to the lower centroid index.
func AssignPartition(p []float64, centroids [][]float64, distFunc distance.Func) int {
	best := -1
	minDist := math.Inf(1)
	for j, c := range centroids {
		if d := distFunc(p, c); d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}
