// Package bitmap provides roaring-backed sets of dense record ids.
//
// The sampler uses them to track emitted records across strategy swaps and
// the selector uses them to collect steering matches.
package bitmap
