package selection

import (
	"fmt"
	"strings"

	"github.com/hupe1980/trickle/model"
)

// Kind selects the per-bucket element rule.
type Kind int

const (
	// KindFirst takes records in bucket order.
	KindFirst Kind = iota
	// KindRandom draws uniformly without replacement.
	KindRandom
	// KindMinimum takes the smallest values of Attribute.
	KindMinimum
	// KindMaximum takes the largest values of Attribute.
	KindMaximum
	// KindMedian takes a window centred on the median of Attribute.
	KindMedian
	// KindSpatialAutocorrelation balances the four quadrants spanned by the
	// boolean ValueHigh and LagHigh attributes.
	KindSpatialAutocorrelation
)

var kindNames = map[Kind]string{
	KindFirst:                  "first",
	KindRandom:                 "random",
	KindMinimum:                "minimum",
	KindMaximum:                "maximum",
	KindMedian:                 "median",
	KindSpatialAutocorrelation: "spatial-autocorrelation",
}

var kindAliases = map[string]Kind{
	"min":             KindMinimum,
	"max":             KindMaximum,
	"autocorrelation": KindSpatialAutocorrelation,
	"lisa":            KindSpatialAutocorrelation,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsOrdered reports whether the rule reads buckets sorted by Attribute.
func (k Kind) IsOrdered() bool {
	return k == KindMinimum || k == KindMaximum || k == KindMedian
}

// ParseKind resolves a selection name.
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
	return 0, model.NewConfigError(model.StageSelection, "strategy", "unknown selection %q", name)
}

// Config carries a selection rule and its parameters.
type Config struct {
	Kind Kind
	// Attribute orders buckets for minimum, maximum and median.
	Attribute int
	// ValueHigh and LagHigh are the boolean attributes of
	// KindSpatialAutocorrelation; non-zero means true.
	ValueHigh, LagHigh int
	// Seed is combined with a per-call counter for every random draw.
	Seed uint64
}

// Validate checks the configuration against a record arity. An arity of 0
// skips attribute range checks.
func (c Config) Validate(arity int) error {
	attr := func(field string, a int) error {
		if a < 0 || (arity > 0 && a >= arity) {
			return model.NewConfigError(model.StageSelection, field,
				"attribute %d out of range for arity %d", a, arity)
		}
		return nil
	}

	switch c.Kind {
	case KindFirst, KindRandom:
		return nil
	case KindMinimum, KindMaximum, KindMedian:
		return attr("attribute", c.Attribute)
	case KindSpatialAutocorrelation:
		if err := attr("value_high", c.ValueHigh); err != nil {
			return err
		}
		return attr("lag_high", c.LagHigh)
	default:
		return model.NewConfigError(model.StageSelection, "strategy", "unknown strategy %v", c.Kind)
	}
}
