// Package mmap provides read-only memory-mapped file access.
//
// The local blob store maps dataset and linearization-cache files instead of
// reading them through kernel buffers.
//
// # Usage
//
//	m, err := mmap.Open("points.csv")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes() // valid until Close
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) via golang.org/x/sys/unix
//   - Windows: CreateFileMapping/MapViewOfFile
package mmap
