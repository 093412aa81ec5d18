package minio

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/hupe1980/trickle/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore_Integration runs against MINIO_ENDPOINT when it is set.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	ctx := context.Background()

	store, err := Connect(ctx, Config{
		Endpoint:     endpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "trickle-test",
		Prefix:       "it/",
		CreateBucket: true,
	})
	require.NoError(t, err)

	data := []byte("x;y\n1;2\n")
	require.NoError(t, store.Put(ctx, "datasets/grid.csv", data))

	got, err := blobstore.ReadAll(ctx, store, "datasets/grid.csv")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "datasets/")
	require.NoError(t, err)
	assert.Contains(t, names, "datasets/grid.csv")

	require.NoError(t, store.Delete(ctx, "datasets/grid.csv"))
	require.NoError(t, store.Delete(ctx, "datasets/grid.csv"))
	_, err = store.Open(ctx, "datasets/grid.csv")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestMapErr(t *testing.T) {
	assert.ErrorIs(t, mapErr(minio.ErrorResponse{Code: "NoSuchKey"}), blobstore.ErrNotFound)
	assert.ErrorIs(t, mapErr(minio.ErrorResponse{Code: "NotFound"}), blobstore.ErrNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	assert.False(t, errors.Is(mapErr(denied), blobstore.ErrNotFound))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("datasets/cars.csv"))
	assert.Equal(t, "application/json", contentType("lincache/k.json"))
	assert.Equal(t, "application/octet-stream", contentType("lincache/k.lin"))
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "b", "datasets/")
	assert.Equal(t, "datasets/cars.csv", s.key("cars.csv"))
	assert.Equal(t, "cars.csv", NewStore(nil, "b", "").key("cars.csv"))
}
