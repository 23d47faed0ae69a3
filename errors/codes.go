// Package errors provides the error taxonomy for rojig repository synchronization.
// Every failure that leaves the pipeline is an *Error carrying a Kind, the operation
// that failed and, where known, the storage location or URL involved.
package errors

// Kind classifies a failure by the collaborator that produced it.
// Kinds are string-based for debuggability and natural JSON serialization.
type Kind string

const (
	// KindFetch indicates an HTTP transport failure or a non-2xx response
	// from the build stream.
	KindFetch Kind = "FETCH_ERROR"

	// KindDecode indicates malformed JSON or a document that does not match
	// the expected build stream or state schema.
	KindDecode Kind = "DECODE_ERROR"

	// KindStorage indicates a list, get or put failure against the object store.
	KindStorage Kind = "STORAGE_ERROR"

	// KindConfig indicates an invalid storage URL, missing bucket, bad flag value
	// or a failing architecture detection helper.
	KindConfig Kind = "INVALID_CONFIGURATION"

	// KindUnknown is reported by KindOf for errors outside this taxonomy.
	KindUnknown Kind = "UNKNOWN"
)

// prefix returns the short operation namespace used in error messages.
func (k Kind) prefix() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindDecode:
		return "decode"
	case KindStorage:
		return "storage"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}
