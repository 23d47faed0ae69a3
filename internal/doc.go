// Package internal contains implementation details for cosa-rojig-repoize.
// These packages are not part of the public API and may change without notice.
//
// The internal packages are organized by functionality:
//   - cosa: build stream wire types and HTTP client
//   - operations: individual S3 operations (list, upload, download)
//   - storage: storage locations and backends (S3, local filesystem)
//   - sync: the incremental sync pipeline
package internal
