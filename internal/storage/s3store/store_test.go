package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
	"github.com/cgwalters/cosa-rojig-repoize/internal/testutil"
)

func TestStore_List(t *testing.T) {
	now := time.Now()
	pages := map[string]*s3.ListObjectsV2Output{
		"": testutil.CreateListObjectsV2Output([]types.Object{
			testutil.CreateTestObject("repo/a.rpm", 10, now),
		}, "repo/", true),
		"next-token": testutil.CreateListObjectsV2Output([]types.Object{
			testutil.CreateTestObject("repo/b.rpm", 20, now),
		}, "repo/", false),
	}

	mockClient := &testutil.MockS3Client{
		ListObjectsV2Func: func(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "test-bucket", aws.ToString(input.Bucket))
			assert.Equal(t, "repo/", aws.ToString(input.Prefix))
			return pages[aws.ToString(input.ContinuationToken)], nil
		},
	}

	objects, err := NewWithClient(mockClient, "test-bucket").List(context.Background(), "repo/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "repo/a.rpm", objects[0].Key)
	assert.Equal(t, "repo/b.rpm", objects[1].Key)
	assert.Equal(t, int64(20), objects[1].Size)
}

func TestStore_List_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{
			name:    "access denied",
			err:     &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
			wantErr: repoerrors.ErrAccessDenied,
		},
		{
			name:    "missing bucket",
			err:     &types.NoSuchBucket{Message: aws.String("no bucket")},
			wantErr: repoerrors.ErrBucketNotFound,
		},
		{
			name: "unclassified",
			err:  fmt.Errorf("dial tcp: connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &testutil.MockS3Client{
				ListObjectsV2Func: func(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
					return nil, tt.err
				},
			}

			_, err := NewWithClient(mockClient, "test-bucket").List(context.Background(), "repo/")
			require.Error(t, err)
			assert.True(t, repoerrors.IsKind(err, repoerrors.KindStorage))
			assert.ErrorIs(t, err, tt.err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), "test-bucket")
		})
	}
}

func TestStore_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockClient := &testutil.MockS3Client{
			GetObjectFunc: func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return testutil.CreateGetObjectOutput([]byte("hello"), "text/plain"), nil
			},
		}
		data, err := NewWithClient(mockClient, "b").Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("not found", func(t *testing.T) {
		mockClient := &testutil.MockS3Client{
			GetObjectFunc: func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return nil, &types.NoSuchKey{}
			},
		}
		_, err := NewWithClient(mockClient, "b").Get(context.Background(), "k")
		require.Error(t, err)
		assert.True(t, repoerrors.IsObjectNotFound(err))
	})

	t.Run("access denied", func(t *testing.T) {
		mockClient := &testutil.MockS3Client{
			GetObjectFunc: func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return nil, &smithy.GenericAPIError{Code: "AccessDenied"}
			},
		}
		_, err := NewWithClient(mockClient, "b").Get(context.Background(), "k")
		require.Error(t, err)
		assert.True(t, repoerrors.IsAccessDenied(err))
		assert.False(t, repoerrors.IsObjectNotFound(err))
	})
}

func TestStore_Put(t *testing.T) {
	data := []byte("rpm bytes")
	digest := testutil.SHA256Hex(data)

	t.Run("streams non-seekable bodies unsigned", func(t *testing.T) {
		var got []byte
		mockClient := &testutil.MockS3Client{
			PutObjectFunc: func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				assert.Len(t, opts, 1)
				assert.Equal(t, "application/x-rpm", aws.ToString(input.ContentType))
				assert.NotNil(t, input.ChecksumSHA256)
				var err error
				got, err = io.ReadAll(input.Body)
				return &s3.PutObjectOutput{}, err
			},
		}

		err := NewWithClient(mockClient, "b").Put(context.Background(), "repo/x.rpm",
			io.NopCloser(strings.NewReader(string(data))), int64(len(data)),
			&storage.PutOptions{ContentType: "application/x-rpm", SHA256: digest})
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("sends in-memory bodies signed", func(t *testing.T) {
		mockClient := &testutil.MockS3Client{
			PutObjectFunc: func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				assert.Empty(t, opts)
				body, err := io.ReadAll(input.Body)
				require.NoError(t, err)
				assert.Equal(t, `{"build":"1"}`, string(body))
				return &s3.PutObjectOutput{}, nil
			},
		}

		body := []byte(`{"build":"1"}`)
		err := NewWithClient(mockClient, "b").Put(context.Background(), "repo/state.json",
			bytes.NewReader(body), int64(len(body)), nil)
		require.NoError(t, err)
	})

	t.Run("maps access denied", func(t *testing.T) {
		mockClient := &testutil.MockS3Client{
			PutObjectFunc: func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				return nil, &smithy.GenericAPIError{Code: "AccessDenied"}
			},
		}

		err := NewWithClient(mockClient, "b").Put(context.Background(), "k",
			strings.NewReader("x"), 1, nil)
		require.Error(t, err)
		assert.True(t, repoerrors.IsAccessDenied(err))
		assert.True(t, repoerrors.IsKind(err, repoerrors.KindStorage))
	})
}

func TestNew_WithAWSConfig(t *testing.T) {
	store, err := New(context.Background(), "test-bucket",
		WithAWSConfig(aws.Config{}),
		WithEndpoint("http://localhost:4566"),
		WithForcePathStyle(true))
	require.NoError(t, err)
	assert.Equal(t, "test-bucket", store.Bucket())
}
