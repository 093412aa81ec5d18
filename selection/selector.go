package selection

import (
	"cmp"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/partition"
)

// Range is an inclusive steering interval.
type Range struct {
	Min, Max float64
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Selector drains a Partition without replacement. While attached it owns
// the partition exclusively and is not safe for concurrent use.
type Selector struct {
	cfg      Config
	part     *partition.Partition
	arity    int
	steering map[int]Range
	calls    uint64
	steered  bool

	// views holds each bucket sorted by the attribute for ordered rules.
	// The partition itself stays in linearization order.
	views map[int][]model.Record
}

// New returns a Selector for cfg with no partition attached.
func New(cfg Config) (*Selector, error) {
	if err := cfg.Validate(0); err != nil {
		return nil, err
	}
	return &Selector{cfg: cfg, steering: make(map[int]Range)}, nil
}

// Config returns the selection configuration.
func (s *Selector) Config() Config { return s.cfg }

// Kind returns the element rule.
func (s *Selector) Kind() Kind { return s.cfg.Kind }

// Load attaches p. Ordered rules build a sorted view of every bucket once
// here; bucket order is left untouched. Steering filters and the call
// counter are kept.
func (s *Selector) Load(p *partition.Partition) error {
	arity := 0
	if keys := p.Keys(); len(keys) > 0 {
		arity = p.Bucket(keys[0])[0].Arity()
	}
	if err := s.cfg.Validate(arity); err != nil {
		return err
	}
	for a := range s.steering {
		if arity > 0 && a >= arity {
			return model.NewConfigError(model.StageSelection, "steering",
				"attribute %d out of range for arity %d", a, arity)
		}
	}
	s.views = nil
	if s.cfg.Kind.IsOrdered() {
		a := s.cfg.Attribute
		s.views = make(map[int][]model.Record, p.NumBuckets())
		for _, k := range p.Keys() {
			v := slices.Clone(p.Bucket(k))
			slices.SortStableFunc(v, func(x, y model.Record) int { return cmp.Compare(x[a], y[a]) })
			s.views[k] = v
		}
	}
	s.part = p
	s.arity = arity
	return nil
}

// Partition returns the attached partition.
func (s *Selector) Partition() *partition.Partition { return s.part }

// Remaining returns the number of undrawn records.
func (s *Selector) Remaining() int {
	if s.part == nil {
		return 0
	}
	return s.part.Total()
}

// Steer sets the range filter of attribute attr, replacing any previous
// range on it.
func (s *Selector) Steer(attr int, lo, hi float64) error {
	if attr < 0 || (s.arity > 0 && attr >= s.arity) {
		return model.NewConfigError(model.StageSelection, "dimension",
			"attribute %d out of range for arity %d", attr, s.arity)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return model.NewConfigError(model.StageSelection, "range", "invalid range [%v, %v]", lo, hi)
	}
	s.steering[attr] = Range{Min: lo, Max: hi}
	return nil
}

// ClearSteering removes every filter.
func (s *Selector) ClearSteering() { clear(s.steering) }

// Steering returns a copy of the active filters.
func (s *Selector) Steering() map[int]Range { return maps.Clone(s.steering) }

// SetSteering replaces the active filters.
func (s *Selector) SetSteering(f map[int]Range) {
	s.steering = maps.Clone(f)
	if s.steering == nil {
		s.steering = make(map[int]Range)
	}
}

func (s *Selector) matches(r model.Record) bool {
	for a, rg := range s.steering {
		if !rg.Contains(r[a]) {
			return false
		}
	}
	return true
}

// Next draws up to size records. A size of zero or less means one record
// per live bucket. It reports false once the partition is exhausted.
//
// While any remaining record satisfies every steering filter, only such
// records are returned, in bucket then position order. Otherwise records are
// drawn from buckets visited in a shuffled order, spreading size evenly.
func (s *Selector) Next(size int) (model.Chunk, bool) {
	if s.part == nil || s.part.IsEmpty() {
		return nil, false
	}
	rng := rand.New(rand.NewPCG(s.cfg.Seed, s.calls))
	s.calls++
	s.steered = false

	need := size
	if need <= 0 {
		need = s.part.NumBuckets()
	}

	if len(s.steering) > 0 {
		if chunk := s.steer(need); len(chunk) > 0 {
			s.steered = true
			return chunk, true
		}
	}
	return s.draw(min(need, s.part.Total()), rng), true
}

// Steered reports whether the last Next call was served by steering.
func (s *Selector) Steered() bool { return s.steered }

func (s *Selector) steer(limit int) model.Chunk {
	var chunk model.Chunk
	for _, k := range s.part.Keys() {
		if len(chunk) >= limit {
			break
		}
		var taken []int
		for i, r := range s.part.Bucket(k) {
			if len(chunk)+len(taken) >= limit {
				break
			}
			if s.matches(r) {
				taken = append(taken, i)
			}
		}
		if len(taken) > 0 {
			chunk = append(chunk, s.take(k, taken)...)
		}
	}
	return chunk
}

func (s *Selector) draw(need int, rng *rand.Rand) model.Chunk {
	keys := s.part.Keys()
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	chunk := make(model.Chunk, 0, need)
	live := make([]int, 0, len(keys))
	for len(chunk) < need {
		live = live[:0]
		for _, k := range keys {
			if s.part.Has(k) {
				live = append(live, k)
			}
		}
		if len(live) == 0 {
			break
		}
		per := max(1, (need-len(chunk))/len(live))
		for _, k := range live {
			left := need - len(chunk)
			if left == 0 {
				break
			}
			n := min(per, s.part.Size(k), left)
			chunk = append(chunk, s.take(k, s.pick(k, n, rng))...)
		}
	}
	return chunk
}

// take removes positions from bucket k and drops the taken records from the
// sorted view.
func (s *Selector) take(k int, positions []int) []model.Record {
	out := s.part.Take(k, positions)
	view, ok := s.views[k]
	if !ok {
		return out
	}
	if !s.part.Has(k) {
		delete(s.views, k)
		return out
	}
	gone := make(map[*float64]struct{}, len(out))
	for _, r := range out {
		gone[&r[0]] = struct{}{}
	}
	s.views[k] = slices.DeleteFunc(view, func(r model.Record) bool {
		_, ok := gone[&r[0]]
		return ok
	})
	return out
}
