package cluster

import "context"

// Noise is the label DBSCAN assigns to points outside every cluster.
const Noise = -1

// Clusterer assigns a label to every point.
type Clusterer interface {
	FitPredict(ctx context.Context, points [][]float64) ([]int, error)
}

// CountLabels returns the number of distinct labels, noise included.
func CountLabels(labels []int) int {
	seen := make(map[int]struct{}, 8)
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
