package download

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/s3api"
)

// Downloader handles S3 download operations.
type Downloader struct {
	s3Client s3api.S3API
}

// New creates a new Downloader instance.
func New(s3Client s3api.S3API) *Downloader {
	return &Downloader{
		s3Client: s3Client,
	}
}

// Download copies an object into writer and returns the number of bytes written.
func (d *Downloader) Download(ctx context.Context, bucket, key string, writer io.Writer) (int64, error) {
	output, err := d.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if IsObjectNotFound(err) {
			return 0, repoerrors.NewStorageError("download", bucket, key, repoerrors.ErrObjectNotFound)
		}
		return 0, repoerrors.NewStorageError("download", bucket, key, err)
	}
	defer output.Body.Close()

	n, err := io.Copy(writer, output.Body)
	if err != nil {
		return n, repoerrors.NewStorageError("download", bucket, key, err)
	}
	return n, nil
}

// Get downloads an entire object and returns it as a byte slice.
func (d *Downloader) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.Download(ctx, bucket, key, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsObjectNotFound reports whether err is S3's missing-object response.
// GetObject surfaces NoSuchKey; a HEAD-style 404 surfaces as NotFound.
func IsObjectNotFound(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
