package linearize

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/trickle/graphkit"
	"github.com/hupe1980/trickle/model"
)

// Linearizer imposes a 1-D order over records.
//
// Implementations never modify the input slice or its records. Output
// records are shared with the input except for graph strategies, which
// emit one new record per node.
type Linearizer interface {
	Linearize(ctx context.Context, records []model.Record) ([]model.Record, error)
	Kind() Kind
}

// Options configures New.
type Options struct {
	// Toolkit supplies the graph subroutines. Defaults to graphkit.Gonum.
	Toolkit graphkit.Toolkit
}

// New returns the Linearizer for cfg. Arity-dependent checks run in Linearize.
func New(cfg Config, optFns ...func(o *Options)) (Linearizer, error) {
	opts := Options{Toolkit: graphkit.Gonum{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch cfg.Kind {
	case KindIdentity:
		return identity{}, nil
	case KindRandom:
		return &Random{Seed: cfg.Seed}, nil
	case KindAttributeSort:
		return &AttributeSort{Attribute: cfg.Attribute}, nil
	case KindZOrder2D, KindZOrder:
		return &ZOrder{cfg: cfg}, nil
	case KindNearestNeighbor:
		return &NearestNeighbor{cfg: cfg}, nil
	case KindGraphBasic, KindGraphWeighted, KindGraphSpanningTree, KindGraphEdgeUnaware, KindGraphRandom:
		return &Graph{cfg: cfg, toolkit: opts.Toolkit}, nil
	default:
		return nil, model.NewConfigError(model.StageLinearization, "strategy", "unknown strategy %v", cfg.Kind)
	}
}

// Linearize is a convenience wrapper around New and Linearizer.Linearize.
func Linearize(ctx context.Context, records []model.Record, cfg Config, optFns ...func(o *Options)) ([]model.Record, error) {
	l, err := New(cfg, optFns...)
	if err != nil {
		return nil, err
	}
	return l.Linearize(ctx, records)
}

// prepare rejects empty input and validates cfg against its arity.
func prepare(records []model.Record, cfg Config) (Config, error) {
	if len(records) == 0 {
		return cfg, model.NewDataError(model.StageLinearization, "no records to linearize")
	}
	arity := records[0].Arity()
	for i, r := range records {
		if r.Arity() != arity {
			return cfg, model.NewDataError(model.StageLinearization,
				"record %d has arity %d, expected %d", i, r.Arity(), arity)
		}
	}
	if err := cfg.Validate(arity); err != nil {
		return cfg, err
	}
	return cfg.withDefaults(arity), nil
}

type identity struct{}

func (identity) Kind() Kind { return KindIdentity }

func (identity) Linearize(_ context.Context, records []model.Record) ([]model.Record, error) {
	if _, err := prepare(records, Config{Kind: KindIdentity}); err != nil {
		return nil, err
	}
	return slices.Clone(records), nil
}

// Random is a seeded uniform permutation.
type Random struct {
	Seed uint64
}

// Kind implements Linearizer.
func (*Random) Kind() Kind { return KindRandom }

// Linearize implements Linearizer.
func (l *Random) Linearize(_ context.Context, records []model.Record) ([]model.Record, error) {
	if _, err := prepare(records, Config{Kind: KindRandom}); err != nil {
		return nil, err
	}
	out := slices.Clone(records)
	rng := rand.New(rand.NewPCG(l.Seed, 0))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// AttributeSort orders records ascending by one attribute, keeping input
// order among ties.
type AttributeSort struct {
	Attribute int
}

// Kind implements Linearizer.
func (*AttributeSort) Kind() Kind { return KindAttributeSort }

// Linearize implements Linearizer.
func (l *AttributeSort) Linearize(_ context.Context, records []model.Record) ([]model.Record, error) {
	if _, err := prepare(records, Config{Kind: KindAttributeSort, Attribute: l.Attribute}); err != nil {
		return nil, err
	}
	a := l.Attribute
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(x, y model.Record) int {
		switch {
		case x[a] < y[a]:
			return -1
		case x[a] > y[a]:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}
