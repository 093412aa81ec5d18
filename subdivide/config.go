package subdivide

import (
	"fmt"
	"strings"

	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/spatial"
)

// Kind selects a subdivision strategy.
type Kind int

const (
	// KindCardinality cuts contiguous runs of ⌊N/Buckets⌋ records.
	KindCardinality Kind = iota
	// KindStandard cuts contiguous runs of ⌊1/Rate⌋ records.
	KindStandard
	// KindBudget accumulates records while the running sum of Attribute
	// stays below Budget.
	KindBudget
	// KindRandomEdges cuts at seeded random positions.
	KindRandomEdges
	// KindCohesion cuts at the largest jumps between consecutive records.
	KindCohesion
	// KindCoverage closes a bucket once it holds both tails of Attribute.
	KindCoverage
	// KindStratified groups records by their modal histogram bin.
	KindStratified
	// KindInterval cuts an attribute-sorted order at histogram bin edges.
	KindInterval
	// KindDensity groups records by DBSCAN label.
	KindDensity
	// KindRepresentative groups records by k-means label.
	KindRepresentative
)

var kindNames = map[Kind]string{
	KindCardinality:    "cardinality",
	KindStandard:       "standard",
	KindBudget:         "budget",
	KindRandomEdges:    "random-edges",
	KindCohesion:       "cohesion",
	KindCoverage:       "coverage",
	KindStratified:     "stratified",
	KindInterval:       "interval",
	KindDensity:        "density",
	KindRepresentative: "representative",
}

var kindAliases = map[string]Kind{
	"bucket-size":   KindBudget,
	"sampling-rate": KindStandard,
	"random":        KindRandomEdges,
	"dbscan":        KindDensity,
	"kmeans":        KindRepresentative,
	"k-means":       KindRepresentative,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsClustering reports whether the strategy fits a clustering model.
func (k Kind) IsClustering() bool {
	return k == KindDensity || k == KindRepresentative
}

// ParseKind resolves a strategy name.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, s := range kindNames {
		if s == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return 0, model.NewConfigError(model.StageSubdivision, "strategy", "unknown subdivision %q", name)
}

const (
	// DefaultSamplesPerBucket sizes the clustering subsample per target bucket.
	DefaultSamplesPerBucket = 20
	// DefaultMaxSample caps the clustering subsample.
	DefaultMaxSample = 10000
	// DefaultLowQuantile and DefaultHighQuantile bound the coverage tails.
	DefaultLowQuantile  = 0.1
	DefaultHighQuantile = 0.9
)

// Config carries a strategy and its parameters. Unused fields are ignored.
type Config struct {
	Kind Kind

	// Buckets is the target bucket count.
	Buckets int
	// Rate is the sampling rate of KindStandard, in (0, 1].
	Rate float64
	// Attribute is read by budget, coverage and interval.
	Attribute int
	// Budget bounds the attribute sum of a KindBudget bucket.
	Budget float64
	// Dimensions is the attribute subspace of cohesion, stratified and the
	// clustering strategies. Cohesion and stratified default to every
	// attribute but the id; clustering requires it.
	Dimensions []int
	// Bins is the histogram resolution of stratified and interval.
	// Defaults to Buckets.
	Bins int
	// LowQuantile and HighQuantile bound coverage tails. Default 0.1 and 0.9.
	LowQuantile, HighQuantile float64

	// Eps and MinSamples parameterise KindDensity.
	Eps        float64
	MinSamples int
	// SamplesPerBucket and MaxSample size the clustering subsample.
	SamplesPerBucket int
	MaxSample        int
	// Index serves label propagation from the subsample.
	Index spatial.Kind

	Seed uint64
}

func (c Config) withDefaults(arity int) Config {
	if len(c.Dimensions) == 0 && (c.Kind == KindCohesion || c.Kind == KindStratified) {
		for a := 1; a < arity; a++ {
			c.Dimensions = append(c.Dimensions, a)
		}
	}
	if c.Bins <= 0 {
		c.Bins = c.Buckets
	}
	if c.LowQuantile == 0 && c.HighQuantile == 0 {
		c.LowQuantile, c.HighQuantile = DefaultLowQuantile, DefaultHighQuantile
	}
	if c.SamplesPerBucket <= 0 {
		c.SamplesPerBucket = DefaultSamplesPerBucket
	}
	if c.MaxSample <= 0 {
		c.MaxSample = DefaultMaxSample
	}
	return c
}

// Validate checks the configuration against a record arity. An arity of 0
// skips attribute range checks and, for cohesion and stratified, the
// defaulted attribute subspace.
func (c Config) Validate(arity int) error {
	c = c.withDefaults(arity)

	cfgErr := func(field, format string, args ...any) error {
		return model.NewConfigError(model.StageSubdivision, field, format, args...)
	}
	attr := func(field string, a int) error {
		if a < 0 || (arity > 0 && a >= arity) {
			return cfgErr(field, "attribute %d out of range for arity %d", a, arity)
		}
		return nil
	}
	dims := func() error {
		if len(c.Dimensions) == 0 && arity == 0 && (c.Kind == KindCohesion || c.Kind == KindStratified) {
			return nil
		}
		if len(c.Dimensions) == 0 {
			return cfgErr("dimensions", "%v requires an attribute subspace", c.Kind)
		}
		for _, d := range c.Dimensions {
			if err := attr("dimensions", d); err != nil {
				return err
			}
		}
		return nil
	}
	buckets := func() error {
		if c.Buckets <= 0 {
			return cfgErr("buckets", "bucket count must be positive, got %d", c.Buckets)
		}
		return nil
	}

	switch c.Kind {
	case KindCardinality, KindRandomEdges:
		return buckets()
	case KindStandard:
		if c.Rate <= 0 || c.Rate > 1 {
			return cfgErr("rate", "sampling rate must be in (0, 1], got %v", c.Rate)
		}
		return nil
	case KindBudget:
		if c.Budget <= 0 {
			return cfgErr("budget", "budget must be positive, got %v", c.Budget)
		}
		return attr("attribute", c.Attribute)
	case KindCohesion:
		if err := buckets(); err != nil {
			return err
		}
		if arity == 1 {
			return cfgErr("dimensions", "records of arity 1 have no attributes besides the id")
		}
		return dims()
	case KindCoverage:
		if c.LowQuantile < 0 || c.HighQuantile > 1 || c.LowQuantile >= c.HighQuantile {
			return cfgErr("quantiles", "need 0 <= low < high <= 1, got %v and %v", c.LowQuantile, c.HighQuantile)
		}
		return attr("attribute", c.Attribute)
	case KindStratified:
		if c.Bins <= 0 {
			return cfgErr("bins", "bin count must be positive, got %d", c.Bins)
		}
		if arity == 1 {
			return cfgErr("dimensions", "records of arity 1 have no attributes besides the id")
		}
		return dims()
	case KindInterval:
		if c.Bins <= 0 {
			return cfgErr("bins", "bin count must be positive, got %d", c.Bins)
		}
		return attr("attribute", c.Attribute)
	case KindDensity:
		if c.Eps <= 0 {
			return cfgErr("eps", "eps must be positive, got %v", c.Eps)
		}
		if c.MinSamples <= 0 {
			return cfgErr("min_samples", "min_samples must be positive, got %d", c.MinSamples)
		}
		if err := buckets(); err != nil {
			return err
		}
		return dims()
	case KindRepresentative:
		if err := buckets(); err != nil {
			return err
		}
		return dims()
	default:
		return cfgErr("strategy", "unknown strategy %v", c.Kind)
	}
}
