package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// StreamArtifact is a rojig artifact served by a fake build stream.
type StreamArtifact struct {
	Path    string
	Content []byte

	// SHA256 overrides the digest advertised in meta.json when non-empty.
	SHA256 string

	// Size overrides the size advertised in meta.json when non-zero.
	Size uint64
}

// StreamBuild is one build served by a fake build stream.
type StreamBuild struct {
	ID     string
	Arches []string

	// Rojig is nil for builds without a rojig image.
	Rojig *StreamArtifact

	// MetaStatus forces an HTTP status for this build's meta.json when non-zero.
	MetaStatus int
}

// Stream is an httptest server imitating a coreos-assembler build stream
// rooted at /stream/.
type Stream struct {
	Server *httptest.Server

	// BuildsStatus forces an HTTP status for builds.json when non-zero.
	BuildsStatus int

	// BuildsBody replaces the generated builds.json when non-empty.
	BuildsBody string

	arch   string
	builds []StreamBuild

	mu       sync.Mutex
	requests []string
}

// NewStream starts a fake build stream serving builds for arch, in the order given.
// The server is closed when the test finishes.
func NewStream(t *testing.T, arch string, builds ...StreamBuild) *Stream {
	t.Helper()

	s := &Stream{arch: arch, builds: builds}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the base URL of the stream, with a trailing slash.
func (s *Stream) URL() string {
	return s.Server.URL + "/stream/"
}

// Requests returns the stream-relative paths requested so far, in order.
func (s *Stream) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Requested reports whether the stream-relative path was requested.
func (s *Stream) Requested(path string) bool {
	for _, r := range s.Requests() {
		if r == path {
			return true
		}
	}
	return false
}

func (s *Stream) serve(w http.ResponseWriter, r *http.Request) {
	rel, ok := strings.CutPrefix(r.URL.Path, "/stream/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, rel)
	s.mu.Unlock()

	if rel == "builds.json" {
		s.serveBuilds(w)
		return
	}

	parts := strings.Split(rel, "/")
	if len(parts) != 3 || parts[1] != s.arch {
		http.NotFound(w, r)
		return
	}

	build := s.find(parts[0])
	if build == nil {
		http.NotFound(w, r)
		return
	}

	if parts[2] == "meta.json" {
		if build.MetaStatus != 0 {
			w.WriteHeader(build.MetaStatus)
			return
		}
		writeJSON(w, s.meta(build))
		return
	}

	if build.Rojig == nil || build.Rojig.Path != parts[2] {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(build.Rojig.Content)))
	_, _ = w.Write(build.Rojig.Content)
}

func (s *Stream) serveBuilds(w http.ResponseWriter) {
	if s.BuildsStatus != 0 {
		w.WriteHeader(s.BuildsStatus)
		return
	}
	if s.BuildsBody != "" {
		_, _ = w.Write([]byte(s.BuildsBody))
		return
	}

	builds := make([]map[string]any, 0, len(s.builds))
	for _, b := range s.builds {
		arches := b.Arches
		if arches == nil {
			arches = []string{s.arch}
		}
		builds = append(builds, map[string]any{"id": b.ID, "arches": arches})
	}
	writeJSON(w, map[string]any{"schema-version": "1.0.0", "builds": builds})
}

func (s *Stream) meta(b *StreamBuild) map[string]any {
	images := map[string]any{
		"qemu": map[string]any{
			"path":                b.ID + "-qemu.qcow2.gz",
			"size":                1024,
			"sha256":              strings.Repeat("a", 64),
			"uncompressed-sha256": strings.Repeat("b", 64),
		},
		"rojig": nil,
	}
	if b.Rojig != nil {
		sum := b.Rojig.SHA256
		if sum == "" {
			sum = SHA256Hex(b.Rojig.Content)
		}
		size := b.Rojig.Size
		if size == 0 {
			size = uint64(len(b.Rojig.Content))
		}
		images["rojig"] = map[string]any{
			"path":   b.Rojig.Path,
			"size":   size,
			"sha256": sum,
		}
	}
	return map[string]any{"buildid": b.ID, "images": images}
}

func (s *Stream) find(id string) *StreamBuild {
	for i := range s.builds {
		if s.builds[i].ID == id {
			return &s.builds[i]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
