package trickle

import (
	"context"
	"time"

	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/internal/bitmap"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/partition"
	"github.com/hupe1980/trickle/selection"
	"github.com/hupe1980/trickle/subdivide"
)

// Config selects the strategy of every pipeline stage.
type Config struct {
	Linearization linearize.Config
	Subdivision   subdivide.Config
	Selection     selection.Config
}

// outputArity is the record arity after linearization: graph strategies
// emit {rank, node id} records.
func (c Config) outputArity(datasetArity int) int {
	if c.Linearization.Kind.IsGraph() {
		return 2
	}
	return datasetArity
}

// Validate checks every stage against a dataset arity.
func (c Config) Validate(datasetArity int) error {
	if err := c.Linearization.Validate(datasetArity); err != nil {
		return err
	}
	arity := c.outputArity(datasetArity)
	if err := c.Subdivision.Validate(arity); err != nil {
		return err
	}
	return c.Selection.Validate(arity)
}

// Sampler streams chunks of a dataset through a linearize, subdivide and
// select pipeline. Every record is emitted at most once. A Sampler is not
// safe for concurrent use; distinct Samplers are independent.
type Sampler struct {
	opts options
	ds   *dataset.Dataset
	cfg  Config

	size          int
	linearization []model.Record
	emitted       *bitmap.IDSet
	selector      *selection.Selector
}

// New builds a ready Sampler. Configuration errors are reported before any
// record is touched; on error no Sampler is returned.
func New(ctx context.Context, ds *dataset.Dataset, cfg Config, optFns ...Option) (*Sampler, error) {
	s := &Sampler{
		opts:    newOptions(optFns),
		ds:      ds,
		emitted: bitmap.New(),
	}
	s.cfg = s.withIndex(cfg)

	start := time.Now()
	err := s.build(ctx)
	elapsed := time.Since(start)

	s.opts.metricsCollector.RecordBuild(ds.Len(), elapsed, err)
	buckets := 0
	if err == nil {
		buckets = s.selector.Partition().NumBuckets()
	}
	s.opts.logger.WithDataset(ds.Name()).LogBuild(ctx, s.cfg, len(s.linearization), buckets, elapsed, err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sampler) build(ctx context.Context) error {
	if err := s.cfg.Validate(s.ds.Arity()); err != nil {
		return err
	}
	sel, err := selection.New(s.cfg.Selection)
	if err != nil {
		return err
	}
	lin, err := s.linearize(ctx, s.cfg.Linearization, s.ds.Records(), true)
	if err != nil {
		return err
	}
	part, err := subdivide.Subdivide(ctx, lin, s.cfg.Subdivision)
	if err != nil {
		return translateError(model.StageSubdivision, err)
	}
	if err := sel.Load(part); err != nil {
		return err
	}
	s.size = len(lin)
	s.linearization = lin
	s.selector = sel
	return nil
}

// withIndex applies the WithIndexKind override.
func (s *Sampler) withIndex(cfg Config) Config {
	if k := s.opts.indexKind; k != nil {
		cfg.Linearization.Index = *k
		cfg.Subdivision.Index = *k
	}
	return cfg
}

// linearize runs cfg over records. Full-dataset runs go through the cache.
func (s *Sampler) linearize(ctx context.Context, cfg linearize.Config, records []model.Record, full bool) ([]model.Record, error) {
	l, err := linearize.New(cfg, func(o *linearize.Options) { o.Toolkit = s.opts.toolkit })
	if err != nil {
		return nil, err
	}
	if full && s.opts.cache != nil {
		l = s.opts.cache.Linearizer(s.ds.Name(), cfg, l)
	}
	out, err := l.Linearize(ctx, records)
	return out, translateError(model.StageLinearization, err)
}

// remaining returns the unsampled records in linearization order.
func (s *Sampler) remaining() []model.Record {
	out := make([]model.Record, 0, s.selector.Remaining())
	for _, r := range s.linearization {
		if !s.emitted.Contains(r.ID()) {
			out = append(out, r)
		}
	}
	return out
}

// Sample returns the next chunk of at most size records. A size of zero or
// less asks for one record per live bucket. It reports false once every
// record has been emitted.
func (s *Sampler) Sample(ctx context.Context, size int) (model.Chunk, bool) {
	start := time.Now()
	chunk, ok := s.selector.Next(size)
	for _, r := range chunk {
		s.emitted.Add(r.ID())
	}
	s.opts.metricsCollector.RecordSample(size, len(chunk), s.selector.Steered(), time.Since(start))
	s.opts.logger.LogSample(ctx, size, len(chunk), s.selector.Remaining())
	return chunk, ok
}

// Steer restricts sampling to records whose attribute attr lies in
// [lo, hi] for as long as any remaining record does.
func (s *Sampler) Steer(attr int, lo, hi float64) error {
	return s.selector.Steer(attr, lo, hi)
}

// ClearSteering removes every steering filter.
func (s *Sampler) ClearSteering() { s.selector.ClearSteering() }

// Steering returns the active steering filters.
func (s *Sampler) Steering() map[int]selection.Range { return s.selector.Steering() }

// SwapLinearization re-linearizes the unsampled data with cfg and
// re-subdivides it with the current subdivision. Graph strategies
// re-linearize the full edge list and drop emitted nodes, so node ranks stay
// stable. Swapping between graph and record strategies is rejected.
func (s *Sampler) SwapLinearization(ctx context.Context, cfg linearize.Config) error {
	start := time.Now()
	cfg = s.withIndex(Config{Linearization: cfg}).Linearization
	err := s.swapLinearization(ctx, cfg)
	s.recordSwap(ctx, model.StageLinearization, cfg.Kind.String(), start, err)
	return err
}

func (s *Sampler) swapLinearization(ctx context.Context, cfg linearize.Config) error {
	if cfg.Kind.IsGraph() != s.cfg.Linearization.Kind.IsGraph() {
		return model.NewConfigError(model.StageSampler, "linearization",
			"cannot swap %v for %v: record shapes differ", s.cfg.Linearization.Kind, cfg.Kind)
	}
	if err := cfg.Validate(s.ds.Arity()); err != nil {
		return err
	}

	var lin []model.Record
	switch rest := s.remaining(); {
	case cfg.Kind.IsGraph():
		full, err := s.linearize(ctx, cfg, s.ds.Records(), true)
		if err != nil {
			return err
		}
		lin = make([]model.Record, 0, len(rest))
		for _, r := range full {
			if !s.emitted.Contains(r.ID()) {
				lin = append(lin, r)
			}
		}
	case len(rest) > 0:
		var err error
		if lin, err = s.linearize(ctx, cfg, rest, false); err != nil {
			return err
		}
	}

	part, err := subdivide.Subdivide(ctx, lin, s.cfg.Subdivision)
	if err != nil {
		return translateError(model.StageSubdivision, err)
	}
	if err := s.selector.Load(part); err != nil {
		return err
	}
	s.linearization = lin
	s.cfg.Linearization = cfg
	return nil
}

// SwapSubdivision re-subdivides the unsampled part of the current
// linearization and re-attaches the selector, keeping its steering.
func (s *Sampler) SwapSubdivision(ctx context.Context, cfg subdivide.Config) error {
	start := time.Now()
	cfg = s.withIndex(Config{Subdivision: cfg}).Subdivision
	err := s.swapSubdivision(ctx, cfg)
	s.recordSwap(ctx, model.StageSubdivision, cfg.Kind.String(), start, err)
	return err
}

func (s *Sampler) swapSubdivision(ctx context.Context, cfg subdivide.Config) error {
	part, err := subdivide.Subdivide(ctx, s.remaining(), cfg)
	if err != nil {
		return translateError(model.StageSubdivision, err)
	}
	if err := s.selector.Load(part); err != nil {
		return err
	}
	s.cfg.Subdivision = cfg
	return nil
}

// SwapSelection replaces the selector, loading it with the current
// partition and the current steering filters.
func (s *Sampler) SwapSelection(ctx context.Context, cfg selection.Config) error {
	start := time.Now()
	err := s.swapSelection(cfg)
	s.recordSwap(ctx, model.StageSelection, cfg.Kind.String(), start, err)
	return err
}

func (s *Sampler) swapSelection(cfg selection.Config) error {
	sel, err := selection.New(cfg)
	if err != nil {
		return err
	}
	sel.SetSteering(s.selector.Steering())
	if err := sel.Load(s.selector.Partition()); err != nil {
		return err
	}
	s.selector = sel
	s.cfg.Selection = cfg
	return nil
}

// SetSelectionAttribute re-creates the current selection on attribute a.
func (s *Sampler) SetSelectionAttribute(ctx context.Context, a int) error {
	cfg := s.cfg.Selection
	cfg.Attribute = a
	return s.SwapSelection(ctx, cfg)
}

func (s *Sampler) recordSwap(ctx context.Context, stage model.Stage, strategy string, start time.Time, err error) {
	s.opts.metricsCollector.RecordSwap(stage, time.Since(start), err)
	s.opts.logger.LogSwap(ctx, string(stage), strategy, err)
}

// DatasetSize returns the number of records the pipeline started with.
func (s *Sampler) DatasetSize() int { return s.size }

// Remaining returns the number of records not yet emitted.
func (s *Sampler) Remaining() int { return s.selector.Remaining() }

// Emitted returns the number of records emitted so far.
func (s *Sampler) Emitted() int { return s.emitted.Len() }

// Drain emits every remaining record in bucket order, ignoring the
// selection strategy and steering.
func (s *Sampler) Drain(ctx context.Context) model.Chunk {
	chunk := model.Chunk(s.selector.Partition().Drain())
	for _, r := range chunk {
		s.emitted.Add(r.ID())
	}
	s.opts.logger.LogSample(ctx, len(chunk), len(chunk), 0)
	return chunk
}

// Config returns the active stage configuration.
func (s *Sampler) Config() Config { return s.cfg }

// Dataset returns the dataset the pipeline was built from.
func (s *Sampler) Dataset() *dataset.Dataset { return s.ds }

// Partition exposes the live partition for inspection. Callers must not
// modify it.
func (s *Sampler) Partition() *partition.Partition { return s.selector.Partition() }
