package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist. It aliases
// os.ErrNotExist so errors.Is matches both.
var ErrNotFound = os.ErrNotExist

// BlobStore holds the CSV datasets a server samples from and the
// linearizations it has cached. Blobs are written whole and read as streams.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open returns a reader over the full blob. The caller closes it.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Put replaces the named blob. Readers never observe a partial write.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ReadAll opens name and returns its full contents.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read blob %q: %w", name, err)
	}
	return data, nil
}
