// Package executor streams planned artifacts from the build stream into storage.
//
// Transfers run one at a time in plan order. Each body is verified against
// the declared size and sha256 while it streams, and the first failure
// aborts the run.
package executor
