package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/s3api"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
)

// MaxSinglePutSize is the largest body S3 accepts in one PutObject.
const MaxSinglePutSize = 5 * 1024 * 1024 * 1024

// Config holds per-upload settings.
type Config struct {
	ContentType string

	// SHA256 is the expected lowercase hex digest. When set it is sent as
	// x-amz-checksum-sha256 so S3 rejects a body that does not match.
	SHA256 string

	ProgressTracker storage.ProgressTracker
}

// Result describes a completed upload.
type Result struct {
	Key       string
	Size      int64
	ETag      string
	VersionID string
	Duration  time.Duration
}

// Uploader handles S3 upload operations.
type Uploader struct {
	s3Client s3api.S3API
}

// New creates a new Uploader instance.
func New(s3Client s3api.S3API) *Uploader {
	return &Uploader{
		s3Client: s3Client,
	}
}

// UploadStream streams exactly size bytes from body into key.
// The payload is sent unsigned so a non-seekable body never has to be buffered.
func (u *Uploader) UploadStream(
	ctx context.Context,
	bucket, key string,
	body io.Reader,
	size int64,
	config *Config,
	startTime time.Time,
) (*Result, error) {
	if size < 0 {
		return nil, repoerrors.NewStorageError("uploadStream", bucket, key,
			fmt.Errorf("%w: negative size %d", repoerrors.ErrInvalidInput, size))
	}
	if size > MaxSinglePutSize {
		return nil, repoerrors.NewStorageError("uploadStream", bucket, key,
			fmt.Errorf("%w: %d bytes", repoerrors.ErrObjectTooLarge, size))
	}

	input, err := newPutInput(bucket, key, size, config)
	if err != nil {
		return nil, repoerrors.NewStorageError("uploadStream", bucket, key, err)
	}
	input.Body = storage.NewProgressReader(body, config.ProgressTracker, size)

	output, err := u.s3Client.PutObject(ctx, input,
		s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware))
	if err != nil {
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, repoerrors.NewStorageError("uploadStream", bucket, key, err)
	}

	return u.complete(key, size, output, config, startTime), nil
}

// UploadSimple uploads an in-memory body with a regular signed request.
func (u *Uploader) UploadSimple(
	ctx context.Context,
	bucket, key string,
	data []byte,
	config *Config,
	startTime time.Time,
) (*Result, error) {
	size := int64(len(data))

	input, err := newPutInput(bucket, key, size, config)
	if err != nil {
		return nil, repoerrors.NewStorageError("uploadSimple", bucket, key, err)
	}
	input.Body = bytes.NewReader(data)

	output, err := u.s3Client.PutObject(ctx, input)
	if err != nil {
		return nil, repoerrors.NewStorageError("uploadSimple", bucket, key, err)
	}

	return u.complete(key, size, output, config, startTime), nil
}

func (u *Uploader) complete(
	key string,
	size int64,
	output *s3.PutObjectOutput,
	config *Config,
	startTime time.Time,
) *Result {
	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(size, size)
		config.ProgressTracker.Complete()
	}

	return &Result{
		Key:       key,
		Size:      size,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Duration:  time.Since(startTime),
	}
}

func newPutInput(bucket, key string, size int64, config *Config) (*s3.PutObjectInput, error) {
	contentType := config.ContentType
	if contentType == "" {
		contentType = storage.DefaultContentType
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}

	if config.SHA256 != "" {
		checksum, err := checksumHeader(config.SHA256)
		if err != nil {
			return nil, err
		}
		input.ChecksumSHA256 = aws.String(checksum)
	}

	return input, nil
}

// checksumHeader converts a hex digest into the base64 form S3 expects.
func checksumHeader(hexDigest string) (string, error) {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil || len(raw) != 32 {
		return "", fmt.Errorf("%w: sha256 %q", repoerrors.ErrInvalidInput, hexDigest)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
