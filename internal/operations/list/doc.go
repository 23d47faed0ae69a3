// Package list handles S3 object listing operations.
// It provides single-page listing and a paginator that walks a prefix to exhaustion.
package list
