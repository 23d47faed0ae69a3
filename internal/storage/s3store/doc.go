// Package s3store implements storage.Store on top of Amazon S3.
//
// Credentials come from the ambient AWS credential chain. Listing is paginated
// until exhausted, reads buffer whole objects, and writes stream a single
// PutObject whose length is declared before the body is sent.
package s3store
