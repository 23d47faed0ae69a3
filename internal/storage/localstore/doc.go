// Package localstore implements storage.Store on a go-billy filesystem.
//
// It serves file:// repository targets (an OS filesystem rooted at /) and
// in-memory stores for tests. Object keys are slash-separated paths.
package localstore
