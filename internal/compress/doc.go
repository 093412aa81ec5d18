// Package compress wraps LZ4 and ZSTD behind a self-describing block format
// used for cached linearizations.
package compress
