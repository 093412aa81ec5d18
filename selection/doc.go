// Package selection drains a partition chunk by chunk without replacement.
//
// A Selector visits buckets in a seeded, per-call shuffled order and draws
// from each one with an element rule (first, random, minimum, maximum,
// median or spatial autocorrelation). Steering filters restrict draws to
// records inside attribute ranges for as long as any such record remains.
package selection
