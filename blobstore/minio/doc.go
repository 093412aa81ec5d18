// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems such as Ceph,
// SeaweedFS, and Garage, without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.Connect(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "trickle",
//	    Prefix:    "datasets/",
//	})
//
// # Features
//
//   - Streaming reads with missing keys mapped to blobstore.ErrNotFound
//   - Content-MD5 verified puts
//   - Optional bucket creation on connect
package minio
