package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/trickle/blobstore"
	"github.com/hupe1980/trickle/blobstore/minio"
	"github.com/hupe1980/trickle/blobstore/s3"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/internal/compress"
	"github.com/hupe1980/trickle/internal/resource"
	"github.com/hupe1980/trickle/spatial"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the service configuration.
type Config struct {
	Server   Server             `yaml:"server"`
	Log      Log                `yaml:"log"`
	Store    Store              `yaml:"store"`
	Cache    Cache              `yaml:"cache"`
	Limits   Limits             `yaml:"limits"`
	Datasets map[string]Dataset `yaml:"datasets" validate:"dive"`

	// Index selects the spatial index of nearest-neighbour chains and
	// clustering. Empty keeps the per-strategy default.
	Index string `yaml:"index" validate:"omitempty,oneof=kdtree kd hnsw"`

	// Defaults are strategy parameters applied when a request omits them,
	// keyed like the query parameters of the HTTP API.
	Defaults map[string]string `yaml:"defaults"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string        `yaml:"addr" validate:"required,hostname_port"`
	Mode            string        `yaml:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Store selects the blob backend holding datasets and cached linearizations.
type Store struct {
	Backend string `yaml:"backend" validate:"oneof=local memory s3 minio"`
	Root    string `yaml:"root" validate:"required_if=Backend local"`

	Bucket   string `yaml:"bucket" validate:"required_if=Backend s3,required_if=Backend minio"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint" validate:"required_if=Backend minio"`

	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Secure       bool   `yaml:"secure"`
	CreateBucket bool   `yaml:"create_bucket"`
}

// Cache configures persisted linearizations.
type Cache struct {
	Enabled     bool   `yaml:"enabled"`
	Prefix      string `yaml:"prefix"`
	Compression string `yaml:"compression" validate:"oneof=none lz4 zstd"`
}

// Limits bounds the work a service accepts.
type Limits struct {
	MaxSessions         int           `yaml:"max_sessions" validate:"gte=0"`
	MaxConcurrentBuilds int64         `yaml:"max_concurrent_builds" validate:"gte=0"`
	MaxResidentRecords  int64         `yaml:"max_resident_records" validate:"gte=0"`
	MaxCachedRecords    int64         `yaml:"max_cached_records" validate:"gte=0"`
	SamplesPerSecond    float64       `yaml:"samples_per_second" validate:"gte=0"`
	SampleBurst         int           `yaml:"sample_burst" validate:"gte=0"`
	BuildTimeout        time.Duration `yaml:"build_timeout" validate:"gte=0"`
	PreloadParallelism  int           `yaml:"preload_parallelism" validate:"gte=0"`
}

// Dataset locates a CSV dataset in the blob store.
type Dataset struct {
	Key         string   `yaml:"key" validate:"required"`
	Delimiter   string   `yaml:"delimiter" validate:"omitempty,len=1"`
	Exclude     []string `yaml:"exclude"`
	Temporal    []string `yaml:"temporal"`
	TimeLayouts []string `yaml:"time_layouts"`
}

// Default returns the configuration used for omitted fields.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8000",
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:   Log{Level: "info", Format: "text"},
		Store: Store{Backend: "local", Root: "."},
		Cache: Cache{Prefix: "linearizations", Compression: "zstd"},
		Limits: Limits{
			MaxConcurrentBuilds: 2,
			BuildTimeout:        5 * time.Minute,
			PreloadParallelism:  4,
		},
		Datasets: map[string]Dataset{},
		Defaults: map[string]string{},
	}
}

// Load reads and validates the YAML file at path on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML on top of Default. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogLevel maps Log.Level to a slog level.
func (c *Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Compression returns the cache compression type.
func (c *Config) Compression() compress.Type {
	t, err := compress.Parse(c.Cache.Compression)
	if err != nil {
		return compress.ZSTD
	}
	return t
}

// IndexKind returns the configured spatial index, if any.
func (c *Config) IndexKind() (spatial.Kind, bool) {
	if c.Index == "" {
		return 0, false
	}
	k, err := spatial.ParseKind(c.Index)
	return k, err == nil
}

// Resources returns the resource controller limits.
func (c *Config) Resources() resource.Config {
	return resource.Config{
		MaxResidentRecords:  c.Limits.MaxResidentRecords,
		MaxConcurrentBuilds: c.Limits.MaxConcurrentBuilds,
		SamplesPerSecond:    c.Limits.SamplesPerSecond,
		SampleBurst:         c.Limits.SampleBurst,
	}
}

// DatasetSpecs converts the dataset section for dataset.NewBlobSource.
func (c *Config) DatasetSpecs() map[string]dataset.Spec {
	specs := make(map[string]dataset.Spec, len(c.Datasets))
	for name, d := range c.Datasets {
		spec := dataset.Spec{
			Key: d.Key,
			CSVOptions: dataset.CSVOptions{
				Exclude:     d.Exclude,
				Temporal:    d.Temporal,
				TimeLayouts: d.TimeLayouts,
			},
		}
		if d.Delimiter != "" {
			spec.Delimiter = []rune(d.Delimiter)[0]
		}
		specs[name] = spec
	}
	return specs
}

// OpenStore connects the configured blob backend.
func (c *Config) OpenStore(ctx context.Context) (blobstore.BlobStore, error) {
	st := c.Store
	switch st.Backend {
	case "local":
		return blobstore.NewLocalStore(st.Root), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		opts := []func(*s3.Options){s3.WithPrefix(st.Prefix)}
		if st.Region != "" {
			opts = append(opts, s3.WithRegion(st.Region))
		}
		if st.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(st.Endpoint))
		}
		return s3.New(ctx, st.Bucket, opts...)
	case "minio":
		return minio.Connect(ctx, minio.Config{
			Endpoint:     st.Endpoint,
			AccessKey:    st.AccessKey,
			SecretKey:    st.SecretKey,
			Bucket:       st.Bucket,
			Prefix:       st.Prefix,
			Region:       st.Region,
			Secure:       st.Secure,
			CreateBucket: st.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", st.Backend)
	}
}
