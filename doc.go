// Package trickle progressively samples a dataset without replacement.
//
// A Sampler runs three stages once per dataset:
//
//   - linearize imposes a locality-preserving 1-D order on the records
//   - subdivide cuts that order into buckets of local neighbourhoods
//   - selection drains the buckets chunk by chunk
//
// Repeated Sample calls return chunks that never repeat a record, so a
// consumer such as an interactive chart can refine its view while data
// arrives.
//
// # Quick Start
//
//	ds, _ := dataset.FromRecords("points", rows)
//	s, _ := trickle.New(ctx, ds, trickle.Config{
//	    Linearization: linearize.Config{Kind: linearize.KindZOrder},
//	    Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 100},
//	    Selection:     selection.Config{Kind: selection.KindRandom, Seed: 1},
//	})
//	for {
//	    chunk, ok := s.Sample(ctx, 500)
//	    if !ok {
//	        break
//	    }
//	    render(chunk)
//	}
//
// # Steering
//
// Steer biases sampling toward an attribute range. While any remaining
// record matches every filter, chunks hold only matching records:
//
//	_ = s.Steer(2, 10, 20)
//	chunk, _ := s.Sample(ctx, 100) // only records with 10 <= attr 2 <= 20
//	s.ClearSteering()
//
// # Swapping Stages
//
// SwapLinearization, SwapSubdivision and SwapSelection replace one stage
// mid-session. They act on the records not yet emitted, so no record is
// repeated or lost. A failed swap leaves the previous stage in place.
//
// # Concurrency
//
// A Sampler is not safe for concurrent use. The session package guards a
// directory of Samplers with one lock per session.
package trickle
