// Package download handles S3 object reads.
// Only whole-object reads of small documents are needed, so objects are
// buffered in memory.
package download
