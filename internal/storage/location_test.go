package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Location
		wantErr error
	}{
		{
			name: "bucket with prefix",
			raw:  "s3://fcos-builds/prod/rojig",
			want: Location{Scheme: SchemeS3, Bucket: "fcos-builds", Prefix: "prod/rojig"},
		},
		{
			name: "trailing slash trimmed",
			raw:  "s3://fcos-builds/prod/rojig/",
			want: Location{Scheme: SchemeS3, Bucket: "fcos-builds", Prefix: "prod/rojig"},
		},
		{
			name: "bucket only",
			raw:  "s3://fcos-builds",
			want: Location{Scheme: SchemeS3, Bucket: "fcos-builds"},
		},
		{
			name: "file location",
			raw:  "file:///srv/repo",
			want: Location{Scheme: SchemeFile, Prefix: "srv/repo"},
		},
		{
			name:    "file root rejected",
			raw:     "file:///",
			wantErr: repoerrors.ErrInvalidURL,
		},
		{
			name:    "missing host",
			raw:     "s3:///prefix",
			wantErr: repoerrors.ErrMissingHost,
		},
		{
			name:    "bucket with port",
			raw:     "s3://fcos-builds:9000/prod",
			wantErr: repoerrors.ErrInvalidURL,
		},
		{
			name:    "port without bucket",
			raw:     "s3://:9000/prod",
			wantErr: repoerrors.ErrMissingHost,
		},
		{
			name:    "unsupported scheme",
			raw:     "gs://bucket/prefix",
			wantErr: repoerrors.ErrInvalidURL,
		},
		{
			name:    "unparsable",
			raw:     "s3://bad host/%zz",
			wantErr: repoerrors.ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, repoerrors.IsKind(err, repoerrors.KindConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocation_Key(t *testing.T) {
	loc := Location{Scheme: SchemeS3, Bucket: "b", Prefix: "repo"}
	assert.Equal(t, "repo/foo-1.0.rpm", loc.Key("foo-1.0.rpm"))
	assert.Equal(t, "repo/", loc.ListPrefix())
	assert.Equal(t, "s3://b/repo", loc.String())

	root := Location{Scheme: SchemeS3, Bucket: "b"}
	assert.Equal(t, "foo-1.0.rpm", root.Key("foo-1.0.rpm"))
	assert.Equal(t, "", root.ListPrefix())
	assert.Equal(t, "s3://b", root.String())

	assert.Equal(t, "file:///srv/repo", Location{Scheme: SchemeFile, Prefix: "srv/repo"}.String())
}

type recordingTracker struct {
	updates []int64
}

func (r *recordingTracker) Update(n, _ int64) { r.updates = append(r.updates, n) }
func (r *recordingTracker) Complete()         {}
func (r *recordingTracker) Error(error)       {}

func TestNewProgressReader(t *testing.T) {
	src := bytes.NewReader([]byte("hello"))
	assert.Same(t, io.Reader(src), NewProgressReader(src, nil, 5))

	tracker := &recordingTracker{}
	data, err := io.ReadAll(NewProgressReader(bytes.NewReader([]byte("hello")), tracker, 5))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NotEmpty(t, tracker.updates)
	assert.Equal(t, int64(5), tracker.updates[len(tracker.updates)-1])
}
