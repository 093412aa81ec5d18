// Package cache provides a weighted LRU cache.
//
// Entries are weighed by a caller-supplied function (records, bytes) and
// the least recently used entries are evicted once the total weight exceeds
// the capacity. An entry heavier than the whole capacity is never cached.
package cache
