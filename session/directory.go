package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/internal/resource"
)

var (
	// ErrUnknownSession is returned for ids the directory does not hold.
	ErrUnknownSession = errors.New("unknown session")

	// ErrTooManySessions is returned when MaxSessions would be exceeded.
	ErrTooManySessions = errors.New("too many sessions")

	// ErrBusy is returned when no build slot is free and the build may not wait.
	ErrBusy = errors.New("pipeline builds saturated")
)

var tracer = otel.Tracer("trickle.session")

// Options configures a Directory.
type Options struct {
	// Logger receives session lifecycle events. Defaults to a no-op logger.
	Logger *trickle.Logger

	// Resources bounds concurrent builds, resident records and the sample
	// rate. Defaults to a controller allowing one build at a time.
	Resources resource.Config

	// BuildTimeout bounds a single pipeline construction. Zero means none.
	BuildTimeout time.Duration

	// MaxSessions caps the number of live sessions. Zero means unlimited.
	MaxSessions int

	// FailFast makes Create fail with ErrBusy instead of queueing for a
	// build slot.
	FailFast bool

	// SamplerOptions are passed to every trickle.New call.
	SamplerOptions []trickle.Option

	// Tracer opens one span per pipeline build. Defaults to the global
	// otel tracer.
	Tracer trace.Tracer
}

// Directory owns the live sessions of a host.
type Directory struct {
	opts   Options
	source dataset.Source
	ctrl   *resource.Controller

	mu       sync.RWMutex
	sessions map[string]*Session

	// creating serializes creates of the same id.
	creatingMu sync.Mutex
	creating   map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

// NewDirectory creates a Directory loading datasets from source.
func NewDirectory(source dataset.Source, optFns ...func(o *Options)) *Directory {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = trickle.NoopLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracer
	}
	return &Directory{
		opts:     opts,
		source:   source,
		ctrl:     resource.NewController(opts.Resources),
		sessions: make(map[string]*Session),
		creating: make(map[string]*idLock),
	}
}

// Create builds a pipeline over the named dataset and stores it under id,
// replacing any previous session with that id. An empty id mints a fresh
// one. Concurrent creates of the same id run one after another, each with
// its own ctx, and the last one to finish wins.
func (d *Directory) Create(ctx context.Context, id, datasetName string, cfg trickle.Config) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	unlock := d.lockID(id)
	defer unlock()
	return d.create(ctx, id, datasetName, cfg)
}

func (d *Directory) lockID(id string) func() {
	d.creatingMu.Lock()
	l, ok := d.creating[id]
	if !ok {
		l = &idLock{}
		d.creating[id] = l
	}
	l.refs++
	d.creatingMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.creatingMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.creating, id)
		}
		d.creatingMu.Unlock()
	}
}

func (d *Directory) create(ctx context.Context, id, datasetName string, cfg trickle.Config) (*Session, error) {
	ctx, span := d.opts.Tracer.Start(ctx, "session.Create",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.String("dataset", datasetName),
			attribute.String("linearization", cfg.Linearization.Kind.String()),
			attribute.String("subdivision", cfg.Subdivision.Kind.String()),
			attribute.String("selection", cfg.Selection.Kind.String()),
		),
	)
	defer span.End()

	s, err := d.build(ctx, id, datasetName, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.opts.Logger.WithSession(id).WarnContext(ctx, "session create failed", "dataset", datasetName, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("records", s.sampler.DatasetSize()))

	d.mu.Lock()
	old, replaced := d.sessions[id]
	if !replaced && d.opts.MaxSessions > 0 && len(d.sessions) >= d.opts.MaxSessions {
		d.mu.Unlock()
		d.ctrl.ReleaseRecords(int64(s.sampler.Dataset().Len()))
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManySessions, d.opts.MaxSessions)
	}
	d.sessions[id] = s
	d.mu.Unlock()

	if replaced {
		d.release(old)
	}
	d.opts.Logger.WithSession(id).InfoContext(ctx, "session created",
		"dataset", datasetName, "records", s.sampler.DatasetSize(), "replaced", replaced)
	return s, nil
}

func (d *Directory) build(ctx context.Context, id, datasetName string, cfg trickle.Config) (*Session, error) {
	ds, err := d.source.Load(ctx, datasetName)
	if err != nil {
		return nil, err
	}

	if d.opts.FailFast {
		if !d.ctrl.TryAcquireBuild() {
			return nil, ErrBusy
		}
	} else if err := d.ctrl.AcquireBuild(ctx); err != nil {
		return nil, err
	}
	defer d.ctrl.ReleaseBuild()

	if err := d.ctrl.AcquireRecords(int64(ds.Len())); err != nil {
		return nil, err
	}

	if d.opts.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.BuildTimeout)
		defer cancel()
	}

	opts := append([]trickle.Option{trickle.WithLogger(d.opts.Logger.WithSession(id))}, d.opts.SamplerOptions...)
	sampler, err := trickle.New(ctx, ds, cfg, opts...)
	if err != nil {
		d.ctrl.ReleaseRecords(int64(ds.Len()))
		return nil, err
	}
	return &Session{
		id:      id,
		dataset: datasetName,
		created: time.Now(),
		ctrl:    d.ctrl,
		sampler: sampler,
	}, nil
}

// release returns the resident records held by s.
func (d *Directory) release(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ctrl.ReleaseRecords(int64(s.sampler.Dataset().Len()))
}

// Get returns the session stored under id.
func (d *Directory) Get(id string) (*Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	return s, nil
}

// Delete removes the session stored under id.
func (d *Directory) Delete(id string) error {
	d.mu.Lock()
	s, ok := d.sessions[id]
	delete(d.sessions, id)
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	d.release(s)
	return nil
}

// Reset removes every session.
func (d *Directory) Reset() {
	d.mu.Lock()
	old := d.sessions
	d.sessions = make(map[string]*Session)
	d.mu.Unlock()
	for _, s := range old {
		d.release(s)
	}
	d.opts.Logger.Info("sessions reset", "count", len(old))
}

// IDs returns the live session ids, sorted.
func (d *Directory) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.sessions))
	for id := range d.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// Each calls fn for every live session in id order, stopping at the first
// error.
func (d *Directory) Each(fn func(*Session) error) error {
	for _, id := range d.IDs() {
		s, err := d.Get(id)
		if err != nil {
			continue // deleted concurrently
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// SteerAll applies a steering filter to every live session.
func (d *Directory) SteerAll(attr int, lo, hi float64) error {
	return d.Each(func(s *Session) error {
		return s.Do(func(p *trickle.Sampler) error { return p.Steer(attr, lo, hi) })
	})
}

// ClearSteeringAll removes the steering filters of every live session.
func (d *Directory) ClearSteeringAll() {
	_ = d.Each(func(s *Session) error {
		return s.Do(func(p *trickle.Sampler) error {
			p.ClearSteering()
			return nil
		})
	})
}

// Stats reports resource usage.
type Stats struct {
	Sessions        int   `json:"sessions"`
	ActiveBuilds    int64 `json:"active_builds"`
	ResidentRecords int64 `json:"resident_records"`
	RecordLimit     int64 `json:"record_limit"`
}

// Stats snapshots resource usage.
func (d *Directory) Stats() Stats {
	return Stats{
		Sessions:        d.Len(),
		ActiveBuilds:    d.ctrl.ActiveBuilds(),
		ResidentRecords: d.ctrl.ResidentRecords(),
		RecordLimit:     d.ctrl.RecordLimit(),
	}
}
