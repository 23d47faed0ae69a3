// Package cosa reads a coreos-assembler build stream over HTTP.
//
// A build stream is a directory tree served at a base URL:
//
//	<base>/builds.json
//	<base>/<id>/<arch>/meta.json
//	<base>/<id>/<arch>/<artifact>
//
// Client fetches and validates the two JSON documents and opens artifact
// bodies for streaming.
package cosa
