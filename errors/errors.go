package errors

import (
	"errors"
	"fmt"
)

// Error represents a pipeline failure with context about the operation that failed.
type Error struct {
	// Kind classifies the failure
	Kind Kind

	// Op is the operation that failed (e.g., "list", "put", "builds")
	Op string

	// Bucket is the storage bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// URL is the remote URL (if applicable)
	URL string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	p := e.Kind.prefix()
	switch {
	case e.URL != "":
		return fmt.Sprintf("%s.%s %s: %v", p, e.Op, e.URL, e.Err)
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("%s.%s %s/%s: %v", p, e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("%s.%s bucket %s: %v", p, e.Op, e.Bucket, e.Err)
	case e.Key != "":
		return fmt.Sprintf("%s.%s object %s: %v", p, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", p, e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithURL adds remote URL context to an existing error.
func (e *Error) WithURL(url string) *Error {
	e.URL = url
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewFetchError creates a FETCH_ERROR for the given URL.
func NewFetchError(op, url string, err error) *Error {
	return &Error{Kind: KindFetch, Op: op, URL: url, Err: err}
}

// NewDecodeError creates a DECODE_ERROR. The source may be a URL or an object key.
func NewDecodeError(op, source string, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, URL: source, Err: err}
}

// NewStorageError creates a STORAGE_ERROR with bucket and key context.
func NewStorageError(op, bucket, key string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Bucket: bucket, Key: key, Err: err}
}

// NewConfigError creates an INVALID_CONFIGURATION error.
func NewConfigError(op string, err error) *Error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// Sentinel errors for common failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("access denied")

	// ErrMissingKey indicates that a listing returned an entry without a key
	ErrMissingKey = errors.New("missing key in listing")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrObjectTooLarge indicates a body larger than a single PUT allows
	ErrObjectTooLarge = errors.New("object too large for a single put")

	// ErrUnexpectedStatus indicates a non-2xx HTTP response
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrSchemaMismatch indicates a decoded document is missing required fields
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrSizeMismatch indicates a transferred body did not have the declared size
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrChecksumMismatch indicates a transferred body did not have the declared sha256
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidURL indicates an unparsable or unsupported URL
	ErrInvalidURL = errors.New("invalid URL")

	// ErrMissingHost indicates a storage URL without a bucket host
	ErrMissingHost = errors.New("missing required URL host")

	// ErrDetectArch indicates the base architecture helper failed
	ErrDetectArch = errors.New("base architecture detection failed")
)

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsObjectNotFound checks if an error indicates that an object was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
