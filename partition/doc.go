// Package partition holds the output of a subdivider: an ordered set of
// buckets, each an owned and shrinking sequence of records.
//
// Buckets are keyed by small integers assigned at construction. A bucket
// that becomes empty is removed and its key never reappears.
package partition
