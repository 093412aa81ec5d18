package trickle

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/trickle/model"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each pipeline construction.
	RecordBuild(records int, duration time.Duration, err error)

	// RecordSample is called after each chunk request. returned is zero
	// once the partition is exhausted.
	RecordSample(requested, returned int, steered bool, duration time.Duration)

	// RecordSwap is called after each stage replacement.
	RecordSwap(stage model.Stage, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordSample(int, int, bool, time.Duration)   {}
func (NoopMetricsCollector) RecordSwap(model.Stage, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildTotalNanos atomic.Int64
	SampleCount     atomic.Int64
	SampleRecords   atomic.Int64
	SteeredCount    atomic.Int64
	ExhaustedCount  atomic.Int64
	SwapCount       atomic.Int64
	SwapErrors      atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordSample implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSample(_, returned int, steered bool, _ time.Duration) {
	b.SampleCount.Add(1)
	b.SampleRecords.Add(int64(returned))
	if steered {
		b.SteeredCount.Add(1)
	}
	if returned == 0 {
		b.ExhaustedCount.Add(1)
	}
}

// RecordSwap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSwap(_ model.Stage, _ time.Duration, err error) {
	b.SwapCount.Add(1)
	if err != nil {
		b.SwapErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		BuildCount:     b.BuildCount.Load(),
		BuildErrors:    b.BuildErrors.Load(),
		SampleCount:    b.SampleCount.Load(),
		SampleRecords:  b.SampleRecords.Load(),
		SteeredCount:   b.SteeredCount.Load(),
		ExhaustedCount: b.ExhaustedCount.Load(),
		SwapCount:      b.SwapCount.Load(),
		SwapErrors:     b.SwapErrors.Load(),
	}
	if s.BuildCount > 0 {
		s.BuildAvgNanos = b.BuildTotalNanos.Load() / s.BuildCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount     int64
	BuildErrors    int64
	BuildAvgNanos  int64
	SampleCount    int64
	SampleRecords  int64
	SteeredCount   int64
	ExhaustedCount int64
	SwapCount      int64
	SwapErrors     int64
}
