package cluster

import (
	"context"
	"errors"

	"github.com/hupe1980/trickle/distance"
	"github.com/hupe1980/trickle/spatial"
)

// DBSCAN is density-based clustering: a point with at least MinSamples
// neighbours within Eps (itself included) is a core point; clusters are the
// connected regions of core points plus their border points.
type DBSCAN struct {
	Eps        float64
	MinSamples int
	Metric     distance.Metric
}

// FitPredict labels clusters 0..c-1 in order of discovery and noise as Noise.
func (db DBSCAN) FitPredict(ctx context.Context, points [][]float64) ([]int, error) {
	if db.Eps <= 0 {
		return nil, errors.New("eps must be positive")
	}
	if db.MinSamples <= 0 {
		return nil, errors.New("min_samples must be positive")
	}

	tree, err := spatial.NewKDTree(points, func(o *spatial.Options) { o.Metric = db.Metric })
	if err != nil {
		return nil, err
	}

	const unvisited = -2
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}

	cluster := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		neighbors := tree.Radius(points[i], db.Eps)
		if len(neighbors) < db.MinSamples {
			labels[i] = Noise
			continue
		}

		labels[i] = cluster
		frontier := append([]int(nil), neighbors...)
		for len(frontier) > 0 {
			j := frontier[0]
			frontier = frontier[1:]

			if labels[j] == Noise {
				labels[j] = cluster // border point
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster

			jn := tree.Radius(points[j], db.Eps)
			if len(jn) >= db.MinSamples {
				frontier = append(frontier, jn...)
			}
		}
		cluster++
	}
	return labels, nil
}
