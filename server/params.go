package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/selection"
	"github.com/hupe1980/trickle/spatial"
	"github.com/hupe1980/trickle/subdivide"
)

// builtinDefaults apply when neither the request nor the service
// configuration names a parameter.
var builtinDefaults = map[string]string{
	"linearization": "z-order",
	"subdivision":   "cardinality",
	"selection":     "random",
	"buckets":       "100",
}

// params resolves query parameters against service defaults and dataset
// column names. It is the only place where strings become strategies.
type params struct {
	q        url.Values
	defaults map[string]string
	ds       *dataset.Dataset
}

func (p params) has(key string) bool {
	if _, ok := p.q[key]; ok {
		return true
	}
	if _, ok := p.defaults[key]; ok {
		return true
	}
	_, ok := builtinDefaults[key]
	return ok
}

func (p params) get(key string) string {
	if v, ok := p.q[key]; ok && len(v) > 0 {
		return v[0]
	}
	if v, ok := p.defaults[key]; ok {
		return v
	}
	return builtinDefaults[key]
}

func (p params) int(stage model.Stage, key string) (int, error) {
	v := p.get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, model.WrapConfigError(stage, key, err)
	}
	return n, nil
}

func (p params) uint(stage model.Stage, key string) (uint64, error) {
	v := p.get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, model.WrapConfigError(stage, key, err)
	}
	return n, nil
}

func (p params) float(stage model.Stage, key string) (float64, error) {
	v := p.get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, model.WrapConfigError(stage, key, err)
	}
	return f, nil
}

// attr resolves a column name or a numeric index.
func (p params) attr(stage model.Stage, key string) (int, error) {
	return resolveAttribute(p.ds, stage, key, p.get(key))
}

// subspace resolves a ':' or ',' separated list of columns.
func (p params) subspace(stage model.Stage, key string) ([]int, error) {
	v := p.get(key)
	if v == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ':' || r == ',' })
	dims := make([]int, 0, len(parts))
	for _, part := range parts {
		a, err := resolveAttribute(p.ds, stage, key, part)
		if err != nil {
			return nil, err
		}
		dims = append(dims, a)
	}
	return dims, nil
}

func resolveAttribute(ds *dataset.Dataset, stage model.Stage, key, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	if ds != nil {
		if a, ok := ds.ColumnIndex(v); ok {
			return a, nil
		}
	}
	a, err := strconv.Atoi(v)
	if err != nil {
		return 0, model.NewConfigError(stage, key, "unknown column %q", v)
	}
	return a, nil
}

// errs collects the first error of a sequence of parses.
type errs struct{ err error }

func (e *errs) int(n int, err error) int {
	if e.err == nil {
		e.err = err
	}
	return n
}

func (e *errs) uint(n uint64, err error) uint64 {
	if e.err == nil {
		e.err = err
	}
	return n
}

func (e *errs) float(f float64, err error) float64 {
	if e.err == nil {
		e.err = err
	}
	return f
}

func (e *errs) ints(n []int, err error) []int {
	if e.err == nil {
		e.err = err
	}
	return n
}

func (p params) index(stage model.Stage) (spatial.Kind, error) {
	k, err := spatial.ParseKind(p.get("index"))
	if err != nil {
		return 0, model.WrapConfigError(stage, "index", err)
	}
	return k, nil
}

func (p params) linearization() (linearize.Config, error) {
	const stage = model.StageLinearization
	kind, err := linearize.ParseKind(p.get("linearization"))
	if err != nil {
		return linearize.Config{}, err
	}
	idx, err := p.index(stage)
	if err != nil {
		return linearize.Config{}, err
	}

	var e errs
	cfg := linearize.Config{
		Kind:       kind,
		Index:      idx,
		Dimensions: e.ints(p.subspace(stage, "linearization_subspace")),
		Attribute:  e.int(p.attr(stage, "sort_attribute")),
		Seed:       e.uint(p.uint(stage, "seed")),
		Lookahead:  e.int(p.int(stage, "lookahead")),
		Source:     e.int(p.attr(stage, "source")),
		Target:     e.int(p.attr(stage, "target")),
		MaxRounds:  e.int(p.int(stage, "max_rounds")),
	}
	if kind == linearize.KindAttributeSort && !p.has("sort_attribute") {
		cfg.Attribute = e.int(p.attr(stage, "dimension"))
	}
	return cfg, e.err
}

func (p params) subdivision() (subdivide.Config, error) {
	const stage = model.StageSubdivision
	kind, err := subdivide.ParseKind(p.get("subdivision"))
	if err != nil {
		return subdivide.Config{}, err
	}
	idx, err := p.index(stage)
	if err != nil {
		return subdivide.Config{}, err
	}

	var e errs
	cfg := subdivide.Config{
		Kind:             kind,
		Index:            idx,
		Buckets:          e.int(p.int(stage, "buckets")),
		Rate:             e.float(p.float(stage, "rate")),
		Attribute:        e.int(p.attr(stage, "attribute")),
		Budget:           e.float(p.float(stage, "budget")),
		Dimensions:       e.ints(p.subspace(stage, "subspace")),
		Bins:             e.int(p.int(stage, "bins")),
		LowQuantile:      e.float(p.float(stage, "low")),
		HighQuantile:     e.float(p.float(stage, "high")),
		Eps:              e.float(p.float(stage, "eps")),
		MinSamples:       e.int(p.int(stage, "min_samples")),
		SamplesPerBucket: e.int(p.int(stage, "samples_per_bucket")),
		MaxSample:        e.int(p.int(stage, "max_sample")),
		Seed:             e.uint(p.uint(stage, "seed")),
	}
	// k is the representative (k-means) name for the bucket count.
	if p.has("k") {
		cfg.Buckets = e.int(p.int(stage, "k"))
	}
	return cfg, e.err
}

func (p params) selection() (selection.Config, error) {
	const stage = model.StageSelection
	kind, err := selection.ParseKind(p.get("selection"))
	if err != nil {
		return selection.Config{}, err
	}
	var e errs
	cfg := selection.Config{
		Kind:      kind,
		Attribute: e.int(p.attr(stage, "dimension")),
		ValueHigh: e.int(p.attr(stage, "value_high")),
		LagHigh:   e.int(p.attr(stage, "lag_high")),
		Seed:      e.uint(p.uint(stage, "seed")),
	}
	return cfg, e.err
}

func (p params) pipeline() (trickle.Config, error) {
	lin, err := p.linearization()
	if err != nil {
		return trickle.Config{}, err
	}
	sub, err := p.subdivision()
	if err != nil {
		return trickle.Config{}, err
	}
	sel, err := p.selection()
	if err != nil {
		return trickle.Config{}, err
	}
	return trickle.Config{Linearization: lin, Subdivision: sub, Selection: sel}, nil
}

// ParseConfig builds a pipeline configuration from query-style parameters.
// Missing keys fall back to defaults, then to built-in values; attributes
// may be given as column names of ds or as indices.
func ParseConfig(q url.Values, defaults map[string]string, ds *dataset.Dataset) (trickle.Config, error) {
	return params{q: q, defaults: defaults, ds: ds}.pipeline()
}

// ParseLinearization is ParseConfig restricted to the linearization stage.
func ParseLinearization(q url.Values, defaults map[string]string, ds *dataset.Dataset) (linearize.Config, error) {
	return params{q: q, defaults: defaults, ds: ds}.linearization()
}
