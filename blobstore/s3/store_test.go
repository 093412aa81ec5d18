package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/trickle/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStore_Open(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "trickle", "datasets")

	t.Run("NotFound", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Bucket == "trickle" && *in.Key == "datasets/missing.csv"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.Open(context.Background(), "missing.csv")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Key == "datasets/cars.csv" && in.Range == nil
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("x;y\n1;2\n")),
		}, nil).Once()

		data, err := blobstore.ReadAll(context.Background(), store, "cars.csv")
		require.NoError(t, err)
		assert.Equal(t, "x;y\n1;2\n", string(data))
	})

	client.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	t.Run("Checksum", func(t *testing.T) {
		client := new(mockClient)
		store := NewStore(client, "trickle", "lincache")

		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Key == "lincache/k1.lin" &&
				aws.ToString(in.ChecksumCRC32C) == checksumCRC32C([]byte("data")) &&
				aws.ToInt64(in.ContentLength) == 4
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		require.NoError(t, store.Put(context.Background(), "k1.lin", []byte("data")))
		client.AssertExpectations(t)
	})

	t.Run("NoChecksum", func(t *testing.T) {
		client := new(mockClient)
		cfg := DefaultUploadConfig()
		cfg.Checksum = false
		store := NewStore(client, "trickle", "", cfg)

		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Key == "k1.lin" && in.ChecksumCRC32C == nil
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		require.NoError(t, store.Put(context.Background(), "k1.lin", []byte("data")))
		client.AssertExpectations(t)
	})
}

func TestStore_Delete(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "trickle", "lincache")

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Bucket == "trickle" && *in.Key == "lincache/k1.json"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	assert.NoError(t, store.Delete(context.Background(), "k1.json"))
	client.AssertExpectations(t)
}

func TestStore_List(t *testing.T) {
	client := new(mockClient)
	store := NewStore(client, "trickle", "root/")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return *in.Prefix == "root/lincache/" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("root/lincache/b.lin")}},
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("root/lincache/a.lin")}},
	}, nil).Once()

	names, err := store.List(context.Background(), "lincache/")
	require.NoError(t, err)
	assert.Equal(t, []string{"lincache/a.lin", "lincache/b.lin"}, names)
}

func TestChecksumCRC32C(t *testing.T) {
	// CRC32C("123456789") = 0xE3069283
	assert.Equal(t, "4waSgw==", checksumCRC32C([]byte("123456789")))
}
