package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrRecordLimitExceeded is returned when admitting a dataset would exceed
// the resident record budget.
var ErrRecordLimitExceeded = errors.New("record limit exceeded")

// Config holds resource limits.
type Config struct {
	// MaxResidentRecords caps the total records held by live pipelines.
	// If 0, no hard limit is enforced (only tracking).
	MaxResidentRecords int64

	// MaxConcurrentBuilds is the maximum number of pipeline builds
	// (linearize + subdivide) running at once. If 0, defaults to 1.
	MaxConcurrentBuilds int64

	// SamplesPerSecond limits chunk requests across all sessions.
	// If 0, unlimited.
	SamplesPerSecond float64

	// SampleBurst is the token bucket size. Defaults to 1 when a rate is set.
	SampleBurst int
}

// Controller governs build concurrency, resident data and sample throughput.
type Controller struct {
	cfg Config

	recSem  *semaphore.Weighted // nil if unlimited
	recUsed atomic.Int64

	buildSem *semaphore.Weighted
	builds   atomic.Int64

	sampleLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentBuilds <= 0 {
		cfg.MaxConcurrentBuilds = 1
	}

	c := &Controller{
		cfg:      cfg,
		buildSem: semaphore.NewWeighted(cfg.MaxConcurrentBuilds),
	}

	if cfg.MaxResidentRecords > 0 {
		c.recSem = semaphore.NewWeighted(cfg.MaxResidentRecords)
	}

	if cfg.SamplesPerSecond > 0 {
		burst := cfg.SampleBurst
		if burst <= 0 {
			burst = 1
		}
		c.sampleLimiter = rate.NewLimiter(rate.Limit(cfg.SamplesPerSecond), burst)
	}

	return c
}

// AcquireRecords reserves room for n resident records.
// Non-blocking: returns ErrRecordLimitExceeded when the budget is exhausted.
func (c *Controller) AcquireRecords(n int64) error {
	if c == nil || n <= 0 {
		return nil
	}

	if c.recSem != nil && !c.recSem.TryAcquire(n) {
		return ErrRecordLimitExceeded
	}

	c.recUsed.Add(n)
	return nil
}

// ReleaseRecords returns n records to the budget.
func (c *Controller) ReleaseRecords(n int64) {
	if c == nil || n <= 0 {
		return
	}

	if c.recSem != nil {
		c.recSem.Release(n)
	}
	c.recUsed.Add(-n)
}

// ResidentRecords returns the number of records currently reserved.
func (c *Controller) ResidentRecords() int64 {
	if c == nil {
		return 0
	}
	return c.recUsed.Load()
}

// RecordLimit returns the configured record budget (0 if unlimited).
func (c *Controller) RecordLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxResidentRecords
}

// AcquireBuild reserves a build slot, blocking until one is free or ctx ends.
func (c *Controller) AcquireBuild(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.buildSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.builds.Add(1)
	return nil
}

// TryAcquireBuild reserves a build slot without blocking.
func (c *Controller) TryAcquireBuild() bool {
	if c == nil {
		return true
	}
	if !c.buildSem.TryAcquire(1) {
		return false
	}
	c.builds.Add(1)
	return true
}

// ReleaseBuild releases a build slot.
func (c *Controller) ReleaseBuild() {
	if c == nil {
		return
	}
	c.builds.Add(-1)
	c.buildSem.Release(1)
}

// ActiveBuilds returns the number of builds holding a slot.
func (c *Controller) ActiveBuilds() int64 {
	if c == nil {
		return 0
	}
	return c.builds.Load()
}

// WaitSample blocks until the sample rate allows another chunk request.
func (c *Controller) WaitSample(ctx context.Context) error {
	if c == nil || c.sampleLimiter == nil {
		return nil
	}
	return c.sampleLimiter.Wait(ctx)
}

// AllowSample reports whether a chunk request may proceed now.
func (c *Controller) AllowSample() bool {
	if c == nil || c.sampleLimiter == nil {
		return true
	}
	return c.sampleLimiter.AllowN(time.Now(), 1)
}
