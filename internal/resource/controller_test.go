package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Records(t *testing.T) {
	c := NewController(Config{MaxResidentRecords: 100})

	require.NoError(t, c.AcquireRecords(50))
	require.NoError(t, c.AcquireRecords(40))
	assert.Equal(t, int64(90), c.ResidentRecords())

	err := c.AcquireRecords(20)
	assert.ErrorIs(t, err, ErrRecordLimitExceeded)
	assert.Equal(t, int64(90), c.ResidentRecords())

	c.ReleaseRecords(50)
	assert.Equal(t, int64(40), c.ResidentRecords())

	require.NoError(t, c.AcquireRecords(20))
	assert.Equal(t, int64(60), c.ResidentRecords())
	assert.Equal(t, int64(100), c.RecordLimit())
}

func TestController_UnlimitedRecords(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireRecords(1_000_000))
	c.ReleaseRecords(500_000)
	assert.Equal(t, int64(500_000), c.ResidentRecords())
	assert.Zero(t, c.RecordLimit())
}

func TestController_Builds(t *testing.T) {
	c := NewController(Config{MaxConcurrentBuilds: 2})

	require.NoError(t, c.AcquireBuild(t.Context()))
	require.True(t, c.TryAcquireBuild())
	assert.False(t, c.TryAcquireBuild())
	assert.Equal(t, int64(2), c.ActiveBuilds())

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireBuild(ctx), context.DeadlineExceeded)

	c.ReleaseBuild()
	assert.True(t, c.TryAcquireBuild())
}

func TestController_DefaultSingleBuild(t *testing.T) {
	c := NewController(Config{})
	require.True(t, c.TryAcquireBuild())
	assert.False(t, c.TryAcquireBuild())
}

func TestController_SampleRate(t *testing.T) {
	c := NewController(Config{SamplesPerSecond: 1, SampleBurst: 2})

	assert.True(t, c.AllowSample())
	assert.True(t, c.AllowSample())
	assert.False(t, c.AllowSample())

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.WaitSample(ctx))
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireRecords(10))
	c.ReleaseRecords(10)
	require.NoError(t, c.AcquireBuild(context.Background()))
	c.ReleaseBuild()
	assert.True(t, c.TryAcquireBuild())
	assert.True(t, c.AllowSample())
	require.NoError(t, c.WaitSample(context.Background()))
	assert.Zero(t, c.ResidentRecords())
	assert.Zero(t, c.ActiveBuilds())
}
