package lincache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"path"
	"strings"
	"time"

	"github.com/hupe1980/trickle/blobstore"
	"github.com/hupe1980/trickle/codec"
	"github.com/hupe1980/trickle/internal/compress"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/model"
)

const (
	dataSuffix     = ".lin"
	manifestSuffix = ".manifest"
)

// Manifest describes one cached linearization. It is written after the
// data blob, so a readable manifest implies a complete entry.
type Manifest struct {
	Key         string    `json:"key"`
	Dataset     string    `json:"dataset"`
	Strategy    string    `json:"strategy"`
	Records     int       `json:"records"`
	Arity       int       `json:"arity"`
	Compression string    `json:"compression"`
	StoredBytes int       `json:"stored_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Options configures a Cache.
type Options struct {
	// Prefix is prepended to every blob name.
	Prefix string
	// Compression applies to data blobs. Defaults to zstd.
	Compression compress.Type
	// Codec encodes manifests. Defaults to codec.Default.
	Codec codec.Codec
}

// Cache persists linearizations in a BlobStore. It is safe for concurrent
// use when the store is.
type Cache struct {
	store blobstore.BlobStore
	opts  Options
}

// New returns a Cache over store.
func New(store blobstore.BlobStore, optFns ...func(o *Options)) *Cache {
	opts := Options{Compression: compress.ZSTD, Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	return &Cache{store: store, opts: opts}
}

// Key identifies the linearization of dataset under cfg.
func Key(dataset string, cfg linearize.Config) string {
	h := fnv.New64a()
	_, _ = h.Write(codec.MustMarshal(codec.JSON{}, cfg))
	return fmt.Sprintf("%s/%s-%016x", dataset, cfg.Kind, h.Sum64())
}

func (c *Cache) name(key, suffix string) string {
	return path.Join(c.opts.Prefix, key) + suffix
}

// Get returns the cached linearization for key. A miss is reported with
// ok == false and a nil error.
func (c *Cache) Get(ctx context.Context, key string) ([]model.Record, bool, error) {
	m, err := c.Manifest(ctx, key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	block, err := blobstore.ReadAll(ctx, c.store, c.name(key, dataSuffix))
	if err != nil {
		return nil, false, fmt.Errorf("lincache: read %s: %w", key, err)
	}
	raw, err := compress.Decode(block)
	if err != nil {
		return nil, false, fmt.Errorf("lincache: %s: %w", key, err)
	}
	records, err := decodeRecords(raw)
	if err != nil {
		return nil, false, fmt.Errorf("lincache: %s: %w", key, err)
	}
	if len(records) != m.Records {
		return nil, false, fmt.Errorf("%w: manifest lists %d records, blob has %d", ErrCorrupt, m.Records, len(records))
	}
	return records, true, nil
}

// Manifest reads the manifest of key.
func (c *Cache) Manifest(ctx context.Context, key string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, c.store, c.name(key, manifestSuffix))
	if err != nil {
		return nil, err
	}
	// The first line names the codec the manifest was written with.
	name, body, ok := strings.Cut(string(data), "\n")
	if !ok {
		return nil, fmt.Errorf("%w: manifest %s has no codec line", ErrCorrupt, key)
	}
	cd, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("lincache: manifest %s uses unknown codec %q", key, name)
	}
	var m Manifest
	if err := cd.Unmarshal([]byte(body), &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %v", ErrCorrupt, key, err)
	}
	return &m, nil
}

// Put stores records under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key, dataset string, kind linearize.Kind, records []model.Record) (*Manifest, error) {
	raw, err := encodeRecords(records)
	if err != nil {
		return nil, err
	}
	block, err := compress.Encode(raw, c.opts.Compression)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, c.name(key, dataSuffix), block); err != nil {
		return nil, fmt.Errorf("lincache: write %s: %w", key, err)
	}

	m := &Manifest{
		Key:         key,
		Dataset:     dataset,
		Strategy:    kind.String(),
		Records:     len(records),
		Compression: c.opts.Compression.String(),
		StoredBytes: len(block),
		CreatedAt:   time.Now().UTC(),
	}
	if len(records) > 0 {
		m.Arity = records[0].Arity()
	}
	body, err := c.opts.Codec.Marshal(m)
	if err != nil {
		return nil, err
	}
	data := append([]byte(c.opts.Codec.Name()+"\n"), body...)
	if err := c.store.Put(ctx, c.name(key, manifestSuffix), data); err != nil {
		return nil, fmt.Errorf("lincache: write manifest %s: %w", key, err)
	}
	return m, nil
}

// Delete removes key. Missing entries are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, c.name(key, manifestSuffix)); err != nil {
		return err
	}
	return c.store.Delete(ctx, c.name(key, dataSuffix))
}

// Keys lists the complete entries below dataset, or all entries when
// dataset is empty.
func (c *Cache) Keys(ctx context.Context, dataset string) ([]string, error) {
	prefix := c.opts.Prefix
	if dataset != "" {
		prefix = path.Join(prefix, dataset) + "/"
	}
	names, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, n := range names {
		if k, ok := strings.CutSuffix(n, manifestSuffix); ok {
			if c.opts.Prefix != "" {
				k = strings.TrimPrefix(strings.TrimPrefix(k, c.opts.Prefix), "/")
			}
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Linearizer returns a linearize.Linearizer that consults the cache for
// dataset before delegating to next, storing fresh results.
func (c *Cache) Linearizer(dataset string, cfg linearize.Config, next linearize.Linearizer) linearize.Linearizer {
	return &cachedLinearizer{cache: c, key: Key(dataset, cfg), dataset: dataset, next: next}
}

type cachedLinearizer struct {
	cache   *Cache
	key     string
	dataset string
	next    linearize.Linearizer
}

func (l *cachedLinearizer) Kind() linearize.Kind { return l.next.Kind() }

// Linearize serves a cache hit or computes and stores the result. Unreadable
// entries are recomputed and overwritten.
func (l *cachedLinearizer) Linearize(ctx context.Context, records []model.Record) ([]model.Record, error) {
	if cached, ok, err := l.cache.Get(ctx, l.key); err == nil && ok {
		return cached, nil
	}
	out, err := l.next.Linearize(ctx, records)
	if err != nil {
		return nil, err
	}
	if _, err := l.cache.Put(ctx, l.key, l.dataset, l.next.Kind(), out); err != nil {
		return nil, err
	}
	return out, nil
}
