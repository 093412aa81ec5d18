// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// # Features
//
//   - Streaming whole-object reads
//   - Single-request puts with CRC32C checksums, multipart above PartSize
//   - Paginated listing
package s3
