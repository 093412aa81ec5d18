package trickle

import (
	"context"
	"errors"

	"github.com/hupe1980/trickle/model"
)

var (
	// ErrConfig matches every configuration error.
	ErrConfig = model.ErrConfig

	// ErrData matches every data error.
	ErrData = model.ErrData

	// ErrExhausted is never returned by Sample; hosts use it to report an
	// exhausted pipeline.
	ErrExhausted = model.ErrExhausted
)

type (
	// ConfigError reports an invalid strategy or parameter.
	ConfigError = model.ConfigError
	// DataError reports input the pipeline cannot process.
	DataError = model.DataError
)

// translateError keeps typed and cancellation errors and classifies
// anything else as a data error of stage.
func translateError(stage model.Stage, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConfig) || errors.Is(err, ErrData) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return model.WrapDataError(stage, err)
}
