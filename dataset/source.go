package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/trickle/blobstore"
	"github.com/hupe1980/trickle/internal/cache"
)

// ErrUnknownDataset is returned when a source has no dataset by that name.
var ErrUnknownDataset = errors.New("unknown dataset")

// Source supplies a Dataset given a logical name.
// Implementations must be safe for concurrent use.
type Source interface {
	Load(ctx context.Context, name string) (*Dataset, error)
	Names() []string
}

// MemorySource serves pre-loaded datasets.
type MemorySource struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewMemorySource creates a MemorySource holding the given datasets.
func NewMemorySource(datasets ...*Dataset) *MemorySource {
	s := &MemorySource{datasets: make(map[string]*Dataset, len(datasets))}
	for _, d := range datasets {
		s.datasets[d.Name()] = d
	}
	return s
}

// Register adds or replaces a dataset.
func (s *MemorySource) Register(d *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[d.Name()] = d
}

// Load returns the named dataset.
func (s *MemorySource) Load(_ context.Context, name string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return d, nil
}

// Names returns the registered dataset names, sorted.
func (s *MemorySource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.datasets))
	for n := range s.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Spec describes where a dataset lives and how to parse it.
type Spec struct {
	Key string
	CSVOptions
}

// BlobSourceOptions configures a BlobSource.
type BlobSourceOptions struct {
	// MaxCachedRecords bounds the records held in memory across parsed
	// datasets; least recently used datasets are dropped first. Zero means
	// unbounded.
	MaxCachedRecords int64
}

// BlobSource parses CSV datasets out of a BlobStore and caches them in memory.
// Concurrent loads of the same name share one read.
type BlobSource struct {
	store blobstore.BlobStore
	specs map[string]Spec

	group singleflight.Group
	cache *cache.LRU[string, *Dataset]
}

// NewBlobSource creates a BlobSource for the given dataset specs.
func NewBlobSource(store blobstore.BlobStore, specs map[string]Spec, optFns ...func(o *BlobSourceOptions)) *BlobSource {
	var opts BlobSourceOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &BlobSource{
		store: store,
		specs: specs,
		cache: cache.NewLRU[string, *Dataset](opts.MaxCachedRecords, func(d *Dataset) int64 { return int64(d.Len()) }),
	}
}

// Load returns the named dataset, reading and parsing it on first use.
func (s *BlobSource) Load(ctx context.Context, name string) (*Dataset, error) {
	if d, ok := s.cache.Get(name); ok {
		return d, nil
	}

	spec, ok := s.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		r, err := s.store.Open(ctx, spec.Key)
		if err != nil {
			return nil, fmt.Errorf("read dataset %q: %w", name, err)
		}
		table, err := ReadCSV(r, spec.CSVOptions)
		_ = r.Close()
		if err != nil {
			return nil, err
		}
		d, err := Load(name, table)
		if err != nil {
			return nil, err
		}

		s.cache.Set(name, d)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Names returns the configured dataset names, sorted.
func (s *BlobSource) Names() []string {
	names := make([]string, 0, len(s.specs))
	for n := range s.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Preload loads every configured dataset with at most parallelism concurrent reads.
func (s *BlobSource) Preload(ctx context.Context, parallelism int) error {
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for _, name := range s.Names() {
		g.Go(func() error {
			_, err := s.Load(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Evict drops a cached dataset so the next Load re-reads it.
func (s *BlobSource) Evict(name string) {
	s.cache.Delete(name)
}

// Cached returns the names currently held in memory, sorted.
func (s *BlobSource) Cached() []string {
	names := s.cache.Keys()
	sort.Strings(names)
	return names
}

var (
	_ Source = (*MemorySource)(nil)
	_ Source = (*BlobSource)(nil)
)
