package cosa

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
)

// Builds is the build stream index, builds.json.
type Builds struct {
	SchemaVersion string     `json:"schema-version"`
	Builds        []BuildRef `json:"builds"`
}

// BuildRef names one build and the architectures it was built for.
type BuildRef struct {
	ID     string   `json:"id"`
	Arches []string `json:"arches"`
}

// BuildMeta is the per-build, per-architecture meta.json.
// Only the fields this tool reads are decoded.
type BuildMeta struct {
	BuildID string           `json:"buildid"`
	Images  *BuildMetaImages `json:"images"`
}

// BuildMetaImages holds the images of a build.
type BuildMetaImages struct {
	Qemu  *CompressedImage   `json:"qemu"`
	Rojig *UncompressedImage `json:"rojig"`
}

// UncompressedImage describes an artifact stored as-is.
type UncompressedImage struct {
	Path   string `json:"path"`
	Size   uint64 `json:"size"`
	SHA256 string `json:"sha256"`
}

// CompressedImage describes a compressed artifact.
type CompressedImage struct {
	Path               string `json:"path"`
	Size               uint64 `json:"size"`
	SHA256             string `json:"sha256"`
	UncompressedSHA256 string `json:"uncompressed-sha256"`
}

// Rojig returns the rojig image, or nil when the build has none.
func (m *BuildMeta) Rojig() *UncompressedImage {
	if m == nil || m.Images == nil {
		return nil
	}
	return m.Images.Rojig
}

// Validate checks the fields that decoding alone cannot enforce.
func (b *Builds) Validate() error {
	if b.SchemaVersion == "" {
		return fmt.Errorf("%w: builds.json has no schema-version", repoerrors.ErrSchemaMismatch)
	}
	if b.Builds == nil {
		return fmt.Errorf("%w: builds.json has no builds", repoerrors.ErrSchemaMismatch)
	}
	for i, ref := range b.Builds {
		if ref.ID == "" {
			return fmt.Errorf("%w: build %d has no id", repoerrors.ErrSchemaMismatch, i)
		}
		if ref.Arches == nil {
			return fmt.Errorf("%w: build %s has no arches", repoerrors.ErrSchemaMismatch, ref.ID)
		}
	}
	return nil
}

// Validate checks the fields that decoding alone cannot enforce.
func (m *BuildMeta) Validate() error {
	if m.BuildID == "" {
		return fmt.Errorf("%w: meta.json has no buildid", repoerrors.ErrSchemaMismatch)
	}
	if m.Images == nil {
		return fmt.Errorf("%w: meta.json for %s has no images", repoerrors.ErrSchemaMismatch, m.BuildID)
	}
	if qemu := m.Images.Qemu; qemu != nil {
		if err := qemu.Validate(); err != nil {
			return fmt.Errorf("build %s qemu image: %w", m.BuildID, err)
		}
	}
	if rojig := m.Images.Rojig; rojig != nil {
		if err := rojig.Validate(); err != nil {
			return fmt.Errorf("build %s rojig image: %w", m.BuildID, err)
		}
	}
	return nil
}

// Validate requires a plain file name and a sha256 digest.
func (u *UncompressedImage) Validate() error {
	switch {
	case u.Path == "":
		return fmt.Errorf("%w: empty path", repoerrors.ErrSchemaMismatch)
	case strings.Contains(u.Path, "/"), u.Path == ".", u.Path == "..":
		return fmt.Errorf("%w: path %q is not a file name", repoerrors.ErrSchemaMismatch, u.Path)
	case !isSHA256(u.SHA256):
		return fmt.Errorf("%w: invalid sha256 %q", repoerrors.ErrSchemaMismatch, u.SHA256)
	}
	return nil
}

// Validate requires a path and both digests.
func (c *CompressedImage) Validate() error {
	switch {
	case c.Path == "":
		return fmt.Errorf("%w: empty path", repoerrors.ErrSchemaMismatch)
	case !isSHA256(c.SHA256):
		return fmt.Errorf("%w: invalid sha256 %q", repoerrors.ErrSchemaMismatch, c.SHA256)
	case !isSHA256(c.UncompressedSHA256):
		return fmt.Errorf("%w: invalid uncompressed-sha256 %q", repoerrors.ErrSchemaMismatch, c.UncompressedSHA256)
	}
	return nil
}

// UnmarshalJSON requires the size field; a zero size must be explicit.
func (u *UncompressedImage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path   string  `json:"path"`
		Size   *uint64 `json:"size"`
		SHA256 string  `json:"sha256"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Size == nil {
		return fmt.Errorf("%w: image %q has no size", repoerrors.ErrSchemaMismatch, raw.Path)
	}
	*u = UncompressedImage{Path: raw.Path, Size: *raw.Size, SHA256: raw.SHA256}
	return nil
}

// UnmarshalJSON requires the size field.
func (c *CompressedImage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Path               string  `json:"path"`
		Size               *uint64 `json:"size"`
		SHA256             string  `json:"sha256"`
		UncompressedSHA256 string  `json:"uncompressed-sha256"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Size == nil {
		return fmt.Errorf("%w: image %q has no size", repoerrors.ErrSchemaMismatch, raw.Path)
	}
	*c = CompressedImage{
		Path:               raw.Path,
		Size:               *raw.Size,
		SHA256:             raw.SHA256,
		UncompressedSHA256: raw.UncompressedSHA256,
	}
	return nil
}

func isSHA256(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
