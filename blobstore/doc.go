// Package blobstore provides the storage abstraction for datasets and cached
// linearizations.
//
// BlobStore is the interface for reading and writing immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and rename-on-write
//   - MemoryStore: in-process store for tests and ephemeral servers
//   - s3.Store: Amazon S3 with checksummed and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the BlobStore interface to support other backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (io.ReadCloser, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
