// Package operations contains the individual S3 operations used by the S3 storage
// backend. Each sub-package owns one request type and its error mapping.
package operations
