package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/internal/resource"
	"github.com/hupe1980/trickle/linearize"
	"github.com/hupe1980/trickle/selection"
	"github.com/hupe1980/trickle/subdivide"
	"github.com/hupe1980/trickle/testutil"
)

func testConfig() trickle.Config {
	return trickle.Config{
		Linearization: linearize.Config{Kind: linearize.KindZOrder},
		Subdivision:   subdivide.Config{Kind: subdivide.KindCardinality, Buckets: 10},
		Selection:     selection.Config{Kind: selection.KindRandom},
	}
}

func testDirectory(t *testing.T, optFns ...func(o *Options)) *Directory {
	t.Helper()
	rng := testutil.NewRNG(1)
	src := dataset.NewMemorySource(
		testutil.MustDataset("uniform", rng.UniformRows(100, 2)),
		testutil.MustDataset("grid", testutil.GridRows(5)),
	)
	return NewDirectory(src, optFns...)
}

func TestDirectory_CreateGetDelete(t *testing.T) {
	d := testDirectory(t)
	ctx := context.Background()

	s, err := d.Create(ctx, "a", "uniform", testConfig())
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID())
	assert.Equal(t, "uniform", s.Dataset())

	got, err := d.Get("a")
	require.NoError(t, err)
	assert.Same(t, s, got)

	info := got.Info()
	assert.Equal(t, 100, info.DatasetSize)
	assert.Equal(t, 100, info.Remaining)

	require.NoError(t, d.Delete("a"))
	_, err = d.Get("a")
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.ErrorIs(t, d.Delete("a"), ErrUnknownSession)
	assert.Zero(t, d.Stats().ResidentRecords)
}

func TestDirectory_MintsIDs(t *testing.T) {
	d := testDirectory(t)
	s, err := d.Create(context.Background(), "", "grid", testConfig())
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, []string{s.ID()}, d.IDs())
}

func TestDirectory_Replace(t *testing.T) {
	d := testDirectory(t)
	ctx := context.Background()

	first, err := d.Create(ctx, "a", "uniform", testConfig())
	require.NoError(t, err)
	_, _, err = first.Sample(ctx, 40)
	require.NoError(t, err)

	second, err := d.Create(ctx, "a", "grid", testConfig())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 25, second.Info().Remaining)
	assert.Equal(t, int64(25), d.Stats().ResidentRecords)
}

func TestDirectory_CreateErrors(t *testing.T) {
	d := testDirectory(t)
	ctx := context.Background()

	_, err := d.Create(ctx, "a", "missing", testConfig())
	assert.ErrorIs(t, err, dataset.ErrUnknownDataset)

	cfg := testConfig()
	cfg.Selection = selection.Config{Kind: selection.KindMaximum, Attribute: 7}
	_, err = d.Create(ctx, "a", "uniform", cfg)
	assert.ErrorIs(t, err, trickle.ErrConfig)

	assert.Zero(t, d.Len())
	assert.Zero(t, d.Stats().ResidentRecords, "failed builds return their records")
}

func TestDirectory_Limits(t *testing.T) {
	t.Run("sessions", func(t *testing.T) {
		d := testDirectory(t, func(o *Options) { o.MaxSessions = 1 })
		ctx := context.Background()
		_, err := d.Create(ctx, "a", "grid", testConfig())
		require.NoError(t, err)

		_, err = d.Create(ctx, "b", "grid", testConfig())
		assert.ErrorIs(t, err, ErrTooManySessions)

		_, err = d.Create(ctx, "a", "uniform", testConfig())
		assert.NoError(t, err, "replacing does not count against the limit")
	})

	t.Run("records", func(t *testing.T) {
		d := testDirectory(t, func(o *Options) {
			o.Resources = resource.Config{MaxResidentRecords: 110}
		})
		ctx := context.Background()
		_, err := d.Create(ctx, "a", "uniform", testConfig())
		require.NoError(t, err)

		_, err = d.Create(ctx, "b", "grid", testConfig())
		assert.ErrorIs(t, err, resource.ErrRecordLimitExceeded)
	})

	t.Run("canceled", func(t *testing.T) {
		d := testDirectory(t, func(o *Options) { o.BuildTimeout = time.Second })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := d.Create(ctx, "a", "uniform", testConfig())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, d.Len())
	})

	t.Run("busy", func(t *testing.T) {
		d := testDirectory(t, func(o *Options) { o.FailFast = true })
		require.True(t, d.ctrl.TryAcquireBuild())
		defer d.ctrl.ReleaseBuild()
		_, err := d.Create(context.Background(), "a", "grid", testConfig())
		assert.ErrorIs(t, err, ErrBusy)
	})
}

func TestDirectory_ConcurrentSessions(t *testing.T) {
	d := testDirectory(t, func(o *Options) {
		o.Resources = resource.Config{MaxConcurrentBuilds: 2}
	})
	ctx := context.Background()
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		_, err := d.Create(ctx, id, "uniform", testConfig())
		require.NoError(t, err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]map[int]int)
		wg   sync.WaitGroup
	)
	for _, id := range ids {
		seen[id] = make(map[int]int)
		s, err := d.Get(id)
		require.NoError(t, err)
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					chunk, ok, err := s.Sample(ctx, 3)
					if err != nil || !ok {
						return
					}
					mu.Lock()
					for _, rid := range chunk.IDs() {
						seen[id][rid]++
					}
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	for _, id := range ids {
		assert.Len(t, seen[id], 100, id)
		for rid, n := range seen[id] {
			assert.Equal(t, 1, n, "session %s emitted %d twice", id, rid)
		}
	}
}

func TestDirectory_ConcurrentCreateSameID(t *testing.T) {
	d := testDirectory(t)
	names := []string{"uniform", "grid"}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := names[i%2]
			s, err := d.Create(context.Background(), "a", name, testConfig())
			if assert.NoError(t, err) {
				assert.Equal(t, name, s.Dataset())
			}
		}()
	}
	wg.Wait()

	s, err := d.Get("a")
	require.NoError(t, err)
	assert.Equal(t, int64(s.Info().DatasetSize), d.Stats().ResidentRecords)
	assert.Empty(t, d.creating)
}

func TestDirectory_CreateKeepsCallerContext(t *testing.T) {
	d := testDirectory(t)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	var (
		wg      sync.WaitGroup
		errDead error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errDead = d.Create(cancelled, "a", "uniform", testConfig())
	}()
	s, err := d.Create(context.Background(), "a", "grid", testConfig())
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, "grid", s.Dataset())
	assert.Error(t, errDead)

	got, err := d.Get("a")
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestDirectory_Steering(t *testing.T) {
	d := testDirectory(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := d.Create(ctx, id, "grid", testConfig())
		require.NoError(t, err)
	}

	require.NoError(t, d.SteerAll(1, 0, 0))
	s, err := d.Get("b")
	require.NoError(t, err)
	chunk, ok, err := s.Sample(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, chunk, 5)
	for _, r := range chunk {
		assert.Zero(t, r[1])
	}

	assert.ErrorIs(t, d.SteerAll(9, 0, 1), trickle.ErrConfig)

	d.ClearSteeringAll()
	require.NoError(t, s.Do(func(p *trickle.Sampler) error {
		assert.Empty(t, p.Steering())
		return nil
	}))
}

func TestDirectory_Reset(t *testing.T) {
	d := testDirectory(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := d.Create(ctx, id, "grid", testConfig())
		require.NoError(t, err)
	}
	d.Reset()
	assert.Zero(t, d.Len())
	assert.Zero(t, d.Stats().ResidentRecords)
}

func TestDirectory_SampleRateLimit(t *testing.T) {
	d := testDirectory(t, func(o *Options) {
		o.Resources = resource.Config{SamplesPerSecond: 0.001, SampleBurst: 1}
	})
	s, err := d.Create(context.Background(), "a", "grid", testConfig())
	require.NoError(t, err)

	_, _, err = s.Sample(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err = s.Sample(ctx, 1)
	assert.Error(t, err)
}
