package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/logging"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/operations/download"
	"github.com/cgwalters/cosa-rojig-repoize/internal/operations/list"
	"github.com/cgwalters/cosa-rojig-repoize/internal/operations/upload"
	"github.com/cgwalters/cosa-rojig-repoize/internal/s3api"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
)

// Store is a storage.Store backed by a single S3 bucket.
type Store struct {
	bucket     string
	s3Client   s3api.S3API
	lister     *list.Lister
	uploader   *upload.Uploader
	downloader *download.Downloader
	logger     *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New creates a Store for bucket, loading AWS configuration from the default
// credential chain unless WithAWSConfig is given.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	var cfg aws.Config
	if o.awsConfig != nil {
		cfg = *o.awsConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if o.profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
		}
		loadOpts = append(loadOpts, config.WithLogger(sdkLogger(o.logger)))

		var err error
		cfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, repoerrors.NewConfigError("s3store", fmt.Errorf("load AWS config: %w", err))
		}
	}

	if o.region != "" {
		cfg.Region = o.region
	} else if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		so.UsePathStyle = o.forcePathStyle
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
		// Checksums are supplied explicitly from build metadata; computing
		// them in the SDK would require a seekable body.
		so.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	o.logger.Debug("created S3 client",
		"bucket", bucket,
		"region", cfg.Region,
		"endpoint", o.endpoint,
		"path_style", o.forcePathStyle)

	s := NewWithClient(client, bucket)
	s.logger = o.logger
	return s, nil
}

// NewWithClient creates a Store with a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, bucket string) *Store {
	return &Store{
		bucket:     bucket,
		s3Client:   s3Client,
		lister:     list.New(s3Client),
		uploader:   upload.New(s3Client),
		downloader: download.New(s3Client),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// Bucket returns the bucket this store operates on.
func (s *Store) Bucket() string {
	return s.bucket
}

// List returns every object under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	objects, err := s.lister.ListAll(ctx, &list.Config{
		Bucket: s.bucket,
		Prefix: prefix,
	})
	if err != nil {
		return nil, repoerrors.NewStorageError("list", s.bucket, "", convertAWSError(err))
	}

	s.logger.Debug("listed objects", "bucket", s.bucket, "prefix", prefix, "count", len(objects))
	return objects, nil
}

// Get reads a whole object.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.downloader.Get(ctx, s.bucket, key)
	if err != nil {
		return nil, convertError(err)
	}
	return data, nil
}

// Put writes size bytes from body to key. In-memory bodies are sent as a
// regular signed request; anything else is streamed with an unsigned payload.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts *storage.PutOptions) error {
	if opts == nil {
		opts = &storage.PutOptions{}
	}
	cfg := &upload.Config{
		ContentType:     opts.ContentType,
		SHA256:          opts.SHA256,
		ProgressTracker: opts.ProgressTracker,
	}

	var (
		result *upload.Result
		err    error
	)
	if br, ok := body.(*bytes.Reader); ok && int64(br.Len()) == size {
		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return repoerrors.NewStorageError("put", s.bucket, key, err)
		}
		result, err = s.uploader.UploadSimple(ctx, s.bucket, key, data, cfg, time.Now())
	} else {
		result, err = s.uploader.UploadStream(ctx, s.bucket, key, body, size, cfg, time.Now())
	}
	if err != nil {
		return convertError(err)
	}

	s.logger.Debug("put object",
		"bucket", s.bucket,
		"key", key,
		"size", result.Size,
		"etag", result.ETag,
		"duration", result.Duration)
	return nil
}

// convertError maps the AWS cause inside a storage error onto a sentinel.
func convertError(err error) error {
	var repoErr *repoerrors.Error
	if errors.As(err, &repoErr) {
		repoErr.Err = convertAWSError(repoErr.Err)
		return repoErr
	}
	return convertAWSError(err)
}

// convertAWSError tags well-known S3 failures with sentinel errors while
// keeping the SDK error in the chain.
func convertAWSError(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	var noSuchBucket *types.NoSuchBucket
	var apiErr smithy.APIError
	switch {
	case errors.Is(err, repoerrors.ErrObjectNotFound),
		errors.Is(err, repoerrors.ErrBucketNotFound),
		errors.Is(err, repoerrors.ErrAccessDenied):
		return err
	case errors.As(err, &noSuchBucket):
		sentinel = repoerrors.ErrBucketNotFound
	case download.IsObjectNotFound(err):
		sentinel = repoerrors.ErrObjectNotFound
	case errors.As(err, &apiErr):
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			sentinel = repoerrors.ErrAccessDenied
		case "NoSuchBucket":
			sentinel = repoerrors.ErrBucketNotFound
		}
	}

	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// sdkLogger forwards AWS SDK log output to slog at debug level.
func sdkLogger(logger *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
		logger.Debug(fmt.Sprintf(format, v...), "source", "aws-sdk", "classification", string(classification))
	})
}
