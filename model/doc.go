// Package model defines the core types shared by every stage of the sampling pipeline.
//
// # Data Types
//
//   - Record: a fixed-arity numeric tuple; position 0 holds the dense id
//   - Chunk: the ordered records returned by one sample call
//
// # Errors
//
//   - ConfigError: unknown strategy, missing or invalid parameter
//   - DataError: empty dataset, malformed arity, non-finite values
//   - ErrExhausted: sentinel used by hosts to signal "no more data"
package model
