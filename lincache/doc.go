// Package lincache persists computed linearizations in a blob store.
//
// Each entry is a compressed data blob of fixed-arity float64 records plus
// a small manifest written last. Keys combine the dataset name with a hash
// of the linearization configuration, so a changed parameter never serves a
// stale order.
package lincache
