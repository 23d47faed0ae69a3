// Package upload handles S3 object upload operations.
// Artifacts are streamed straight into a single PutObject with their size
// declared up front; small documents such as the sync state go through UploadSimple.
package upload
