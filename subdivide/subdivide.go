package subdivide

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/partition"
)

// Subdivider partitions a linearization into buckets. Records keep their
// linearization order inside a bucket and empty buckets are never emitted.
type Subdivider interface {
	Subdivide(ctx context.Context, linearization []model.Record) (*partition.Partition, error)
	Kind() Kind
}

// New returns the Subdivider for cfg. Parameters independent of the record
// arity are validated here; attribute ranges are checked on Subdivide.
func New(cfg Config) (Subdivider, error) {
	if err := cfg.Validate(0); err != nil {
		return nil, err
	}
	return &subdivider{cfg: cfg}, nil
}

// Subdivide is a shorthand for New followed by Subdivide.
func Subdivide(ctx context.Context, linearization []model.Record, cfg Config) (*partition.Partition, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return s.Subdivide(ctx, linearization)
}

type subdivider struct {
	cfg Config
}

func (s *subdivider) Kind() Kind { return s.cfg.Kind }

func (s *subdivider) Subdivide(ctx context.Context, lin []model.Record) (*partition.Partition, error) {
	if len(lin) == 0 {
		return partition.New(), nil
	}
	arity := lin[0].Arity()
	for i, r := range lin {
		if r.Arity() != arity {
			return nil, model.NewDataError(model.StageSubdivision,
				"record %d has arity %d, want %d", i, r.Arity(), arity)
		}
	}
	if err := s.cfg.Validate(arity); err != nil {
		return nil, err
	}
	cfg := s.cfg.withDefaults(arity)

	var (
		buckets [][]model.Record
		err     error
	)
	switch cfg.Kind {
	case KindCardinality:
		buckets = runs(lin, max(1, len(lin)/cfg.Buckets))
	case KindStandard:
		buckets = runs(lin, max(1, int(math.Floor(1/cfg.Rate))))
	case KindBudget:
		buckets = budget(lin, cfg.Attribute, cfg.Budget)
	case KindRandomEdges:
		buckets = randomEdges(lin, cfg.Buckets, cfg.Seed)
	case KindCohesion:
		buckets = cohesion(lin, cfg.Dimensions, cfg.Buckets)
	case KindCoverage:
		buckets, err = coverage(lin, cfg.Attribute, cfg.LowQuantile, cfg.HighQuantile)
	case KindStratified:
		buckets, err = stratified(lin, cfg.Dimensions, cfg.Bins)
	case KindInterval:
		buckets, err = interval(lin, cfg.Attribute, cfg.Bins)
	case KindDensity, KindRepresentative:
		buckets, err = clustered(ctx, lin, cfg)
	}
	if err != nil {
		return nil, err
	}
	return partition.New(buckets...), nil
}

// runs cuts lin into contiguous runs of size; the last may be shorter.
func runs(lin []model.Record, size int) [][]model.Record {
	out := make([][]model.Record, 0, (len(lin)+size-1)/size)
	for i := 0; i < len(lin); i += size {
		out = append(out, lin[i:min(i+size, len(lin))])
	}
	return out
}

// cutAt splits lin before every index in cuts, which must be ascending.
func cutAt(lin []model.Record, cuts []int) [][]model.Record {
	out := make([][]model.Record, 0, len(cuts)+1)
	prev := 0
	for _, c := range cuts {
		out = append(out, lin[prev:c])
		prev = c
	}
	return append(out, lin[prev:])
}

func budget(lin []model.Record, attr int, limit float64) [][]model.Record {
	var (
		out []model.Record
		all [][]model.Record
		sum float64
	)
	for _, r := range lin {
		v := r[attr]
		if sum+v < limit {
			out = append(out, r)
			sum += v
			continue
		}
		all = append(all, out)
		out = []model.Record{r}
		sum = v
	}
	return append(all, out)
}

// randomEdges cuts at buckets-1 distinct positions drawn from 1..N-1.
func randomEdges(lin []model.Record, buckets int, seed uint64) [][]model.Record {
	n := min(buckets, len(lin))
	if n <= 1 {
		return [][]model.Record{lin}
	}
	rng := rand.New(rand.NewPCG(seed, uint64(len(lin))))
	cuts := rng.Perm(len(lin) - 1)[:n-1]
	for i := range cuts {
		cuts[i]++
	}
	slices.Sort(cuts)
	return cutAt(lin, cuts)
}
