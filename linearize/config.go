package linearize

import (
	"fmt"
	"strings"

	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/spatial"
)

// Kind enumerates the linearization strategies.
type Kind int

const (
	// KindIdentity keeps the input order.
	KindIdentity Kind = iota
	// KindRandom applies a seeded uniform permutation.
	KindRandom
	// KindAttributeSort stable-sorts by one numeric or temporal attribute.
	KindAttributeSort
	// KindZOrder2D orders by the Morton code of attributes 1 and 2.
	KindZOrder2D
	// KindZOrder orders by the Morton code of an arbitrary attribute subspace.
	KindZOrder
	// KindNearestNeighbor chains each record to its nearest unvisited neighbour.
	KindNearestNeighbor
	// KindGraphBasic reduces a directed view of an edge list to a path.
	KindGraphBasic
	// KindGraphWeighted reduces an edge list to a path using neighbour ids as weights.
	KindGraphWeighted
	// KindGraphSpanningTree visits a minimum spanning tree in DFS preorder.
	KindGraphSpanningTree
	// KindGraphEdgeUnaware sorts graph nodes by id, ignoring edges.
	KindGraphEdgeUnaware
	// KindGraphRandom shuffles graph nodes.
	KindGraphRandom
)

var kindNames = map[Kind]string{
	KindIdentity:          "identity",
	KindRandom:            "random",
	KindAttributeSort:     "numeric",
	KindZOrder2D:          "z-order-2d",
	KindZOrder:            "z-order",
	KindNearestNeighbor:   "knn",
	KindGraphBasic:        "graph-basic",
	KindGraphWeighted:     "graph-weighted",
	KindGraphSpanningTree: "graph-spanning-tree",
	KindGraphEdgeUnaware:  "graph-edge-unaware",
	KindGraphRandom:       "graph-random",
}

// String returns the canonical strategy name.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsGraph reports whether the strategy consumes an edge list and emits node records.
func (k Kind) IsGraph() bool {
	return k >= KindGraphBasic && k <= KindGraphRandom
}

// ParseKind resolves a strategy name. "temporal" is an alias of "numeric"
// since temporal columns are parsed to numbers at load time.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "temporal", "attribute", "sort":
		return KindAttributeSort, nil
	case "nn", "nearest-neighbor", "nearest_neighbour":
		return KindNearestNeighbor, nil
	case "z-order-kd", "zorder":
		return KindZOrder, nil
	}
	for k, s := range kindNames {
		if s == n {
			return k, nil
		}
	}
	return 0, model.NewConfigError(model.StageLinearization, "strategy", "unknown strategy %q", name)
}

// DefaultLookahead is the neighbour count consulted per nearest-neighbour step.
const DefaultLookahead = 50

// DefaultMaxRounds bounds the graph degree-reduction loop.
const DefaultMaxRounds = 1000

// Config selects a strategy and carries its parameters.
type Config struct {
	Kind Kind

	// Dimensions are the attribute indices used by z-order and nearest-neighbour
	// strategies. Empty means every attribute except the id.
	Dimensions []int

	// Attribute is the sort key of KindAttributeSort.
	Attribute int

	// Seed drives the random strategies and the HNSW level generator.
	Seed uint64

	// Lookahead is the neighbour count of KindNearestNeighbor. Defaults to 50.
	Lookahead int
	// Index selects the spatial index of KindNearestNeighbor.
	Index spatial.Kind

	// Source and Target are the edge endpoint attributes of graph strategies.
	// Both zero means attributes 1 and 2.
	Source, Target int
	// MaxRounds bounds degree reduction. Defaults to 1000.
	MaxRounds int
}

// withDefaults fills zero values.
func (c Config) withDefaults(arity int) Config {
	if c.Kind == KindZOrder2D {
		c.Dimensions = []int{1, 2}
	}
	if len(c.Dimensions) == 0 && (c.Kind == KindZOrder || c.Kind == KindNearestNeighbor) {
		for a := 1; a < arity; a++ {
			c.Dimensions = append(c.Dimensions, a)
		}
	}
	if c.Lookahead <= 0 {
		c.Lookahead = DefaultLookahead
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.Kind.IsGraph() && c.Source == 0 && c.Target == 0 {
		c.Source, c.Target = 1, 2
	}
	return c
}

// Validate checks the configuration against a record arity.
func (c Config) Validate(arity int) error {
	c = c.withDefaults(arity)

	inRange := func(field string, a int) error {
		if a < 0 || a >= arity {
			return model.NewConfigError(model.StageLinearization, field,
				"attribute %d out of range for arity %d", a, arity)
		}
		return nil
	}

	switch c.Kind {
	case KindIdentity, KindRandom:
		return nil
	case KindAttributeSort:
		return inRange("attribute", c.Attribute)
	case KindZOrder2D, KindZOrder, KindNearestNeighbor:
		if len(c.Dimensions) == 0 {
			return model.NewConfigError(model.StageLinearization, "dimensions",
				"records of arity %d have no attributes besides the id", arity)
		}
		for _, d := range c.Dimensions {
			if err := inRange("dimensions", d); err != nil {
				return err
			}
		}
		if c.Kind == KindNearestNeighbor && c.Index != spatial.KindKDTree && c.Index != spatial.KindHNSW {
			return model.NewConfigError(model.StageLinearization, "index", "unsupported index %v", c.Index)
		}
		return nil
	case KindGraphBasic, KindGraphWeighted, KindGraphSpanningTree, KindGraphEdgeUnaware, KindGraphRandom:
		if err := inRange("source", c.Source); err != nil {
			return err
		}
		if err := inRange("target", c.Target); err != nil {
			return err
		}
		if c.Source == c.Target {
			return model.NewConfigError(model.StageLinearization, "target", "source and target are both attribute %d", c.Source)
		}
		return nil
	default:
		return model.NewConfigError(model.StageLinearization, "strategy", "unknown strategy %v", c.Kind)
	}
}
