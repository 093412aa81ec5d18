package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError(StageSubdivision, "bins", "must be positive, got %d", 0)
	assert.Equal(t, "subdivision: invalid bins: must be positive, got 0", err.Error())
	assert.ErrorIs(t, err, ErrConfig)
	assert.NotErrorIs(t, err, ErrData)

	wrapped := fmt.Errorf("swap: %w", err)
	var ce *ConfigError
	assert.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, "bins", ce.Field)
}

func TestDataError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := WrapDataError(StageDataset, cause)
	assert.ErrorIs(t, err, ErrData)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dataset: boom", err.Error())
}

func TestChunkIDs(t *testing.T) {
	c := Chunk{{3, 1}, {0, 5}, {7, 2}}
	assert.Equal(t, []int{3, 0, 7}, c.IDs())
	assert.Equal(t, []float64{1, 5, 2}, Column(c, 1))
	assert.Equal(t, []float64{5, 0}, Subspace(Record{0, 5, 0}, []int{1, 2}))
}
