package storage

import (
	"context"
	"io"
	"time"
)

// DefaultContentType is used when no better content type is known.
const DefaultContentType = "application/octet-stream"

// Object represents a stored object with its basic metadata.
type Object struct {
	// Key is the full object key. Backends report an empty key verbatim
	// so callers can decide whether that is fatal.
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time
}

// PutOptions configures a single Put.
type PutOptions struct {
	// ContentType is the MIME type recorded with the object
	ContentType string

	// SHA256 is the expected lowercase hex digest of the body, if known.
	// Backends that support server-side integrity checks forward it.
	SHA256 string

	// ProgressTracker receives byte progress for the transfer
	ProgressTracker ProgressTracker
}

// Store is the object store the pipeline reads and writes.
type Store interface {
	// List returns every object whose key starts with prefix, across all pages.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Get returns the full contents of key. A missing key is reported with an
	// error matching errors.ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes exactly size bytes from body to key. The size is a contract:
	// a body that yields a different number of bytes fails the put.
	Put(ctx context.Context, key string, body io.Reader, size int64, opts *PutOptions) error
}

// ProgressTracker defines the interface for tracking transfer progress.
type ProgressTracker interface {
	// Update is called periodically with transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// ProgressReader wraps an io.Reader and reports bytes read to a ProgressTracker.
type ProgressReader struct {
	reader    io.Reader
	tracker   ProgressTracker
	total     int64
	bytesRead int64
}

// NewProgressReader returns r unchanged when tracker is nil.
func NewProgressReader(r io.Reader, tracker ProgressTracker, total int64) io.Reader {
	if tracker == nil {
		return r
	}
	return &ProgressReader{reader: r, tracker: tracker, total: total}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.bytesRead += int64(n)
		pr.tracker.Update(pr.bytesRead, pr.total)
	}
	//nolint:wrapcheck // io.Reader interface contract - error comes from underlying reader
	return n, err
}
