// Package storage defines the object store abstraction the sync pipeline writes to,
// along with parsing of target locations.
//
// Two backends implement Store:
//   - s3store: Amazon S3 (or an S3-compatible endpoint) through AWS SDK v2
//   - localstore: a go-billy filesystem, used for file:// targets and tests
package storage
