package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/trickle/blobstore"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Store keeps blobs as objects in one S3 bucket under a key prefix.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	upload   UploadConfig
	uploader *manager.Uploader
}

var _ blobstore.BlobStore = (*Store)(nil)

// UploadConfig controls how Put sends data.
type UploadConfig struct {
	// PartSize is the threshold above which Put switches to a multipart
	// upload, and the size of each part. Default: 8MB
	PartSize int64
	// Concurrency is the number of parts in flight. Default: 5
	Concurrency int
	// Checksum attaches a CRC32C checksum to every upload. Default: true
	Checksum bool
}

// DefaultUploadConfig returns the settings New uses unless overridden.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:    8 * 1024 * 1024,
		Concurrency: 5,
		Checksum:    true,
	}
}

// Options configures New.
type Options struct {
	Prefix   string
	Region   string
	Endpoint string
	// UsePathStyle forces path-style addressing (LocalStack and similar).
	UsePathStyle bool
	Upload       UploadConfig
}

// WithPrefix sets the key prefix for all blobs.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion overrides the region from the default AWS config chain.
func WithRegion(region string) func(*Options) {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint sets a custom endpoint and enables path-style addressing.
func WithEndpoint(endpoint string) func(*Options) {
	return func(o *Options) {
		o.Endpoint = endpoint
		o.UsePathStyle = true
	}
}

// WithUploadConfig overrides the upload settings.
func WithUploadConfig(cfg UploadConfig) func(*Options) {
	return func(o *Options) { o.Upload = cfg }
}

// New creates a Store from the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...func(*Options)) (*Store, error) {
	opts := Options{Upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewStore(client, bucket, opts.Prefix, opts.Upload), nil
}

// NewStore wraps an existing client. rootPrefix is prepended to every key.
// Without an UploadConfig the defaults apply.
func NewStore(client Client, bucket, rootPrefix string, upload ...UploadConfig) *Store {
	cfg := DefaultUploadConfig()
	if len(upload) > 0 {
		cfg = upload[0]
	}
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		upload: cfg,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = cfg.PartSize
			u.Concurrency = cfg.Concurrency
		}),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open issues a GET for the whole object and streams its body.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

// Put sends data in one request when it fits in a part and as a multipart
// upload otherwise.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	}
	if int64(len(data)) <= s.upload.PartSize {
		in.ContentLength = aws.Int64(int64(len(data)))
		if s.upload.Checksum {
			in.ChecksumCRC32C = aws.String(checksumCRC32C(data))
		}
		_, err := s.client.PutObject(ctx, in)
		return err
	}
	if s.upload.Checksum {
		in.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	_, err := s.uploader.Upload(ctx, in)
	return err
}

// Delete removes an object. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List pages through the bucket and returns names relative to the store
// prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.key(prefix)
	if strings.HasSuffix(prefix, "/") && !strings.HasSuffix(full, "/") {
		full += "/"
	}

	var names []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(full),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			if s.prefix != "" {
				name = strings.TrimPrefix(strings.TrimPrefix(name, s.prefix), "/")
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

// checksumCRC32C returns the base64 big-endian CRC32C S3 expects.
func checksumCRC32C(data []byte) string {
	return base64.StdEncoding.EncodeToString(binary.BigEndian.AppendUint32(nil, crc32.Checksum(data, castagnoli)))
}
