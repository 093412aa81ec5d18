package trickle_test

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/selection"
	"github.com/hupe1980/trickle/subdivide"
)

// Example demonstrates draining a dataset chunk by chunk.
func Example() {
	ctx := context.Background()
	ds, err := dataset.FromRecords("values", [][]float64{
		{0, 5}, {0, 3}, {0, 8}, {0, 1}, {0, 9}, {0, 2}, {0, 7}, {0, 4},
	})
	if err != nil {
		log.Fatal(err)
	}

	s, err := trickle.New(ctx, ds, trickle.Config{
		Linearization: linearize.Config{Kind: linearize.KindIdentity},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 4},
		Selection:     selection.Config{Kind: selection.KindMaximum, Attribute: 1},
	})
	if err != nil {
		log.Fatal(err)
	}

	for {
		chunk, ok := s.Sample(ctx, 0)
		if !ok {
			break
		}
		values := model.Column(chunk, 1)
		slices.Sort(values)
		fmt.Println(values)
	}
	// Output:
	// [5 7 8 9]
	// [1 2 3 4]
}

// Example_steering demonstrates restricting chunks to an attribute range.
func Example_steering() {
	ctx := context.Background()
	ds, _ := dataset.FromRecords("values", [][]float64{
		{0, 5}, {0, 3}, {0, 8}, {0, 1}, {0, 9}, {0, 2}, {0, 7}, {0, 4},
	})
	s, _ := trickle.New(ctx, ds, trickle.Config{
		Subdivision: subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 2},
	})

	_ = s.Steer(1, 7, 10)
	chunk, _ := s.Sample(ctx, 10)
	fmt.Println(model.Column(chunk, 1))
	// Output: [8 9 7]
}
