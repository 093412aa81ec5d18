package trickle

import (
	"log/slog"

	"github.com/hupe1980/trickle/graphkit"
	"github.com/hupe1980/trickle/lincache"
	"github.com/hupe1980/trickle/spatial"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	toolkit          graphkit.Toolkit
	indexKind        *spatial.Kind
	cache            *lincache.Cache
}

// Option configures a Sampler.
type Option func(*options)

func newOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		toolkit:          graphkit.Gonum{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.toolkit == nil {
		o.toolkit = graphkit.Gonum{}
	}
	return o
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &trickle.BasicMetricsCollector{}
//	s, _ := trickle.New(ctx, ds, cfg, trickle.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Chunks: %d, Records: %d\n", stats.SampleCount, stats.SampleRecords)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithGraphToolkit replaces the graph subroutines used by graph
// linearizations. Defaults to graphkit.Gonum.
func WithGraphToolkit(t graphkit.Toolkit) Option {
	return func(o *options) {
		o.toolkit = t
	}
}

// WithIndexKind overrides the spatial index used by nearest-neighbour
// chains and clustering label propagation.
func WithIndexKind(k spatial.Kind) Option {
	return func(o *options) {
		o.indexKind = &k
	}
}

// WithLinearizationCache serves full-dataset linearizations from c and
// stores fresh ones in it.
func WithLinearizationCache(c *lincache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}
