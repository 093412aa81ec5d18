package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every *ConfigError via errors.Is.
	ErrConfig = errors.New("configuration error")

	// ErrData matches every *DataError via errors.Is.
	ErrData = errors.New("data error")

	// ErrExhausted signals that a partition has no records left.
	// Core operations report exhaustion with a nil chunk rather than this error;
	// hosts use it to translate that state into their own protocol.
	ErrExhausted = errors.New("partition exhausted")
)

// Stage names the pipeline stage an error originated from.
type Stage string

const (
	StageDataset       Stage = "dataset"
	StageLinearization Stage = "linearization"
	StageSubdivision   Stage = "subdivision"
	StageSelection     Stage = "selection"
	StageSampler       Stage = "sampler"
)

// ConfigError reports an unknown strategy, a missing or invalid parameter,
// or an attribute index outside the record arity.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Stage  Stage
	Field  string
	Reason string
	cause  error
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(stage Stage, field, format string, args ...any) *ConfigError {
	return &ConfigError{Stage: stage, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// WrapConfigError builds a ConfigError around cause.
func WrapConfigError(stage Stage, field string, cause error) *ConfigError {
	return &ConfigError{Stage: stage, Field: field, Reason: cause.Error(), cause: cause}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid configuration: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", e.Stage, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.cause }

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// DataError reports a dataset the pipeline cannot process.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type DataError struct {
	Stage  Stage
	Reason string
	cause  error
}

// NewDataError builds a DataError with a formatted reason.
func NewDataError(stage Stage, format string, args ...any) *DataError {
	return &DataError{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

// WrapDataError builds a DataError around cause.
func WrapDataError(stage Stage, cause error) *DataError {
	return &DataError{Stage: stage, Reason: cause.Error(), cause: cause}
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

func (e *DataError) Unwrap() error { return e.cause }

// Is reports whether target is ErrData.
func (e *DataError) Is(target error) bool { return target == ErrData }
